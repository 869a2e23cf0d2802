package step

const rdfSchema = "http://physiomeproject.org/workflow/1.0/rdf-schema#"

// Port predicates and data types understood by the workflow host.
const (
	PredicatePort     = rdfSchema + "port"
	PredicateUses     = rdfSchema + "uses"
	PredicateProvides = rdfSchema + "provides"

	TypeImageContext    = rdfSchema + "image_context_data"
	TypeFileLocation    = rdfSchema + "file_location"
	TypeVideoObject     = rdfSchema + "video_object"
	TypeVideoDescriptor = rdfSchema + "video_descriptor"
)

// Fixed port indices.
const (
	PortContext     = 0
	PortFilePath    = 1
	PortFrameSource = 2
	PortDescriptor  = 3
)

// Port is a (subject, predicate, object) triple describing one workflow port.
type Port struct {
	Subject   string
	Predicate string
	Object    string
}

// Uses reports whether the port is an input.
func (p Port) Uses() bool {
	return p.Predicate == PredicateUses
}

// Ports returns the step's ports in index order.
func Ports() []Port {
	return []Port{
		PortContext:     {Subject: PredicatePort, Predicate: PredicateUses, Object: TypeImageContext},
		PortFilePath:    {Subject: PredicatePort, Predicate: PredicateUses, Object: TypeFileLocation},
		PortFrameSource: {Subject: PredicatePort, Predicate: PredicateProvides, Object: TypeVideoObject},
		PortDescriptor:  {Subject: PredicatePort, Predicate: PredicateProvides, Object: TypeVideoDescriptor},
	}
}
