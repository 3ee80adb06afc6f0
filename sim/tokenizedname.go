package sim

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// A Name is a hierarchical component or port name such as
// "Platform.Cache[2].TopPort".
type Name struct {
	Tokens []NameToken
}

// NameToken is one dot-separated element of a Name.
type NameToken struct {
	ElemName string
	Index    []int
}

var (
	nameTokenPattern = regexp.MustCompile(`^([A-Z][A-Za-z0-9]*)((?:\[\d+\])*)$`)
	nameIndexPattern = regexp.MustCompile(`\[(\d+)\]`)
)

// ParseName splits a name into tokens. It returns an error if any element
// is empty, does not start with a capital letter, contains characters other
// than letters and digits, or has malformed indices.
func ParseName(s string) (Name, error) {
	parts := strings.Split(s, ".")
	name := Name{Tokens: make([]NameToken, 0, len(parts))}

	for _, part := range parts {
		token, err := parseNameToken(part)
		if err != nil {
			return Name{}, fmt.Errorf("name %q: %w", s, err)
		}

		name.Tokens = append(name.Tokens, token)
	}

	return name, nil
}

func parseNameToken(part string) (NameToken, error) {
	m := nameTokenPattern.FindStringSubmatch(part)
	if m == nil {
		return NameToken{}, fmt.Errorf("invalid element %q", part)
	}

	token := NameToken{ElemName: m[1]}

	for _, idx := range nameIndexPattern.FindAllStringSubmatch(m[2], -1) {
		i, err := strconv.Atoi(idx[1])
		if err != nil {
			return NameToken{}, err
		}

		token.Index = append(token.Index, i)
	}

	return token, nil
}

// String joins the tokens back into a name.
func (n Name) String() string {
	parts := make([]string, 0, len(n.Tokens))

	for _, t := range n.Tokens {
		var sb strings.Builder

		sb.WriteString(t.ElemName)

		for _, i := range t.Index {
			fmt.Fprintf(&sb, "[%d]", i)
		}

		parts = append(parts, sb.String())
	}

	return strings.Join(parts, ".")
}

// NameMustBeValid panics if the name cannot be parsed.
func NameMustBeValid(name string) {
	if _, err := ParseName(name); err != nil {
		panic(err.Error())
	}
}

// BuildName appends an element to a parent name.
func BuildName(parentName, elementName string) string {
	if parentName == "" {
		return elementName
	}

	return parentName + "." + elementName
}

// BuildNameWithIndex appends an indexed element, like "Cache[2]", to a
// parent name.
func BuildNameWithIndex(parentName, elementName string, index int) string {
	return BuildName(parentName, elementName+"["+strconv.Itoa(index)+"]")
}
