package ellipsoid

// NumParams is the number of host parameter slots the object uses.
const NumParams = 7

// ObjectName is reported for ordinal 0.
const ObjectName = "Ellipsoid Face"

var paramNames = [...]string{
	ObjectName,
	"a",
	"b",
	"c",
	"# theta",
	"# phi",
	"Is a volume?",
	"Is reflective?",
}

// ParamName returns the label for a parameter ordinal. Ordinal 0 names the
// object type; unused ordinals return "".
func ParamName(ordinal int) string {
	if ordinal < 0 || ordinal >= len(paramNames) {
		return ""
	}
	return paramNames[ordinal]
}
