package declaration

// Kind classifies a top-level declaration.
type Kind string

const (
	KindContract  Kind = "contract"
	KindLibrary   Kind = "library"
	KindInterface Kind = "interface"
)

// ConstructorName identifies an unnamed constructor member.
const ConstructorName = "$constructor"

// declarationKinds maps grammar node kinds to declaration kinds.
var declarationKinds = map[string]Kind{
	"contract_declaration":  KindContract,
	"library_declaration":   KindLibrary,
	"interface_declaration": KindInterface,
}

// Declaration is a named contract, library or interface.
type Declaration struct {
	Name    string
	Kind    Kind
	Members []Member
}

// Member is a function or modifier definition inside a Declaration.
type Member struct {
	Name string
	// Text is the exact source span of the definition.
	Text string
	// StartLine and EndLine are 1-based and inclusive.
	StartLine int
	EndLine   int
}

// Catalog is the ordered list of declarations found in one revision of a file.
type Catalog []Declaration

// MemberNames returns member names in source order.
func (d Declaration) MemberNames() []string {
	names := make([]string, 0, len(d.Members))
	for _, m := range d.Members {
		names = append(names, m.Name)
	}
	return names
}

// Index returns a name-keyed view of the catalog. When two declarations
// share a name the later one wins.
func (c Catalog) Index() map[string]Declaration {
	index := make(map[string]Declaration, len(c))
	for _, d := range c {
		index[d.Name] = d
	}
	return index
}

// MemberIndex returns a name-keyed view of the members. Overloads collapse
// to the last definition.
func (d Declaration) MemberIndex() map[string]Member {
	index := make(map[string]Member, len(d.Members))
	for _, m := range d.Members {
		index[m.Name] = m
	}
	return index
}
