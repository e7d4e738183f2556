package logger

// Standard field names for structured logging.
const (
	FieldDir       = "dir"
	FieldFile      = "file"
	FieldInterface = "interface"
	FieldType      = "type"
	FieldMember    = "member"
	FieldKind      = "kind"
	FieldGenerator = "generator"
	FieldPortrait  = "portrait"
	FieldCount     = "count"
	FieldError     = "error"
	FieldDuration  = "duration_ms"
)
