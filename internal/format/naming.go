package format

import "fmt"

// TargetFile is the corpus file name of a group's full graph.
func TargetFile(f Format, group string) string {
	switch f {
	case RI:
		return group + "_original_graph.gfu"
	case VF3:
		return group + "graph.grf"
	default:
		return group + "_original_graph"
	}
}

// SampleFile is the corpus file name of a group's connected sample at the
// given percentage level.
func SampleFile(f Format, group string, level int) string {
	switch f {
	case RI:
		return fmt.Sprintf("%s_subgraph_%d.gfu", group, level)
	case VF3:
		return fmt.Sprintf("%sgraph%d.sub.grf", group, level)
	default:
		return fmt.Sprintf("%s_subgraph_%d", group, level)
	}
}

// NamedFile is the corpus file name of a standalone graph such as a real
// network or a random target.
func NamedFile(f Format, name string) string {
	switch f {
	case RI:
		return name + ".gfu"
	case VF3:
		return name + ".grf"
	default:
		return name + ".lad"
	}
}

// FixedPatternFile is the corpus file name of a family's shared pattern.
func FixedPatternFile(f Format, name string) string {
	switch f {
	case RI:
		return name + ".gfu"
	case VF3:
		return name + ".sub.grf"
	default:
		return name + ".lad"
	}
}
