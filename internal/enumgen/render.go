// SPDX-License-Identifier: MPL-2.0

package enumgen

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"github.com/layergen/layergen/internal/slot"
)

// Header is the first line of every generated artifact.
const Header = "// This file is auto-generated. Changes will be overwritten."

var (
	identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
	namespacePattern  = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)*$`)
)

// Config carries the generator settings. It is passed by value so an
// emission always works on its own copy.
type Config struct {
	// OutputPath is the artifact path. Relative paths resolve against the
	// process working directory.
	OutputPath string
	// Namespace is the (optionally dotted) namespace wrapping the enum.
	Namespace string
	// EnumName is the enum type name.
	EnumName string
}

// Validate returns an error wrapping ErrInvalidConfig when any field would
// produce an artifact that does not compile.
func (c Config) Validate() error {
	var problems []string
	if strings.TrimSpace(c.OutputPath) == "" {
		problems = append(problems, "output path is empty")
	}
	if !namespacePattern.MatchString(c.Namespace) {
		problems = append(problems, fmt.Sprintf("namespace %q is not a valid identifier", c.Namespace))
	}
	if !identifierPattern.MatchString(c.EnumName) {
		problems = append(problems, fmt.Sprintf("enum name %q is not a valid identifier", c.EnumName))
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(problems, "; "))
	}
	return nil
}

// Render produces the artifact text for s. Output depends only on s and the
// namespace and enum name of cfg, so equal inputs yield byte-identical output.
func Render(s slot.Snapshot, cfg Config) ([]byte, error) {
	members, err := Members(s)
	if err != nil {
		return nil, err
	}
	return renderMembers(members, cfg), nil
}

func renderMembers(members []Member, cfg Config) []byte {
	var buf bytes.Buffer
	buf.WriteString(Header + "\n")
	fmt.Fprintf(&buf, "namespace %s\n", cfg.Namespace)
	buf.WriteString("{\n")
	fmt.Fprintf(&buf, "    public enum %s\n", cfg.EnumName)
	buf.WriteString("    {\n")
	for _, m := range members {
		fmt.Fprintf(&buf, "        %s = %d,\n", m.Identifier, m.Index)
	}
	buf.WriteString("    }\n")
	buf.WriteString("}\n")
	return buf.Bytes()
}
