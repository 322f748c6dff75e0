package parser

// Section headers switch the current section. Content of sections without
// a builder is ignored.
var sectionHeaders = toSet(
	"globals", "nodes", "nodes2", "beams", "cameras", "cinecam", "engine",
	"engoption", "engturbo", "brakes", "hydros", "animators", "commands",
	"commands2", "rotators", "rotators2", "wings", "collisionboxes",
	"rescuer", "managedmaterials", "contacters", "triggers", "lockgroups",
	"hooks", "submesh", "slidenodes", "railgroups", "ropes", "fixes", "ties",
	"ropables", "particles", "rigidifiers", "torquecurve", "cruisecontrol",
	"axles", "shocks", "shocks2", "flares", "flares2",
	"materialflarebindings", "props", "flexbodies", "flexbodywheels",
	"meshwheels2", "meshwheels", "wheels", "wheels2", "airbrakes",
	"turboprops", "fusedrag", "turbojets", "pistonprops", "screwprops",
	"description", "comment", "soundsources", "minimass",
	"disabledefaultsounds", "guisettings", "triangles", "quads",
)

// Inline directives act on parser state or the model directly and never
// change the current section.
var inlineDirectives = toSet(
	"set_skeleton_settings", "set_beam_defaults", "set_beam_defaults_scale",
	"set_node_defaults", "enable_advanced_deformation", "end", "guid",
	"fileformatversion", "author", "fileinfo", "slopebrake",
	"tractioncontrol", "antilockbrakes", "disable_flexbody_shadow",
	"flexbody_camera_mode", "prop_camera_mode", "section", "sectionconfig",
	"importcommands", "forwardcommands", "forset", "detacher_group",
	"rollon", "end_section", "end_description", "end_comment",
)

func toSet(names ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(names))
	for _, n := range names {
		m[n] = struct{}{}
	}
	return m
}

func isSection(tok string) bool {
	_, ok := sectionHeaders[tok]
	return ok
}

func isDirective(tok string) bool {
	_, ok := inlineDirectives[tok]
	return ok
}

// minTokens is the minimum token count a section line needs before its
// builder runs. Shorter lines are skipped silently.
var minTokens = map[string]int{
	"nodes":          4,
	"nodes2":         4,
	"beams":          2,
	"hydros":         3,
	"globals":        2,
	"railgroups":     2,
	"slidenodes":     2,
	"fixes":          1,
	"triangles":      3,
	"quads":          4,
	"submesh":        4,
	"flexbodies":     10,
	"props":          10,
	"cameras":        3,
	"cinecam":        11,
	"engine":         6,
	"engoption":      1,
	"torquecurve":    1,
	"brakes":         1,
	"axles":          2,
	"wheels":         12,
	"wheels2":        15,
	"flexbodywheels": 15,
	"minimass":       1,
}
