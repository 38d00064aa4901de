package domain

import (
	"fmt"
	"strings"
)

// Division is one of the three competitive categories match records and
// rankings are partitioned by.
type Division string

const (
	DivisionHLD   Division = "HLD"
	DivisionLLD   Division = "LLD"
	DivisionMelee Division = "MELEE"
)

func Divisions() []Division {
	return []Division{DivisionHLD, DivisionLLD, DivisionMelee}
}

func ParseDivision(s string) (Division, error) {
	switch Division(strings.ToUpper(strings.TrimSpace(s))) {
	case DivisionHLD:
		return DivisionHLD, nil
	case DivisionLLD:
		return DivisionLLD, nil
	case DivisionMelee:
		return DivisionMelee, nil
	}
	return "", fmt.Errorf("unknown division: %q", s)
}
