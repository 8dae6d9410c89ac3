package permission

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Level is an access level. Higher levels include every lower one.
type Level int

const (
	LevelNone     Level = 0
	LevelOverview Level = 100
	LevelRead     Level = 200
	LevelComment  Level = 300
	LevelModerate Level = 400
	LevelEdit     Level = 500
	LevelAdd      Level = 600
	LevelDelete   Level = 700
	LevelAdmin    Level = 800
)

var levelNames = map[Level]string{
	LevelNone:     "none",
	LevelOverview: "overview",
	LevelRead:     "read",
	LevelComment:  "comment",
	LevelModerate: "moderate",
	LevelEdit:     "edit",
	LevelAdd:      "add",
	LevelDelete:   "delete",
	LevelAdmin:    "admin",
}

func (l Level) String() string {
	if name, ok := levelNames[l]; ok {
		return name
	}
	return fmt.Sprintf("level(%d)", int(l))
}

// ParseLevel accepts a level name such as "read" or "comment".
func ParseLevel(s string) (Level, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for level, n := range levelNames {
		if n == name {
			return level, nil
		}
	}
	return LevelNone, fmt.Errorf("unknown access level %q", s)
}

// UnmarshalYAML lets rule files spell levels by name.
func (l *Level) UnmarshalYAML(value *yaml.Node) error {
	var name string
	if err := value.Decode(&name); err != nil {
		return err
	}
	parsed, err := ParseLevel(name)
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}
