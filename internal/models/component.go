package models

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

type ComponentKind string

const (
	KindCamp       ComponentKind = "camp"
	KindDeposit    ComponentKind = "deposit"
	KindProtection ComponentKind = "protection"
	KindAddon      ComponentKind = "addon"
	KindDiet       ComponentKind = "diet"
	KindOther      ComponentKind = "other"
)

func (k ComponentKind) IsValid() bool {
	switch k {
	case KindCamp, KindDeposit, KindProtection, KindAddon, KindDiet, KindOther:
		return true
	}
	return false
}

// ComponentType is the billing category shown to users. The deposit is a slice
// of the camp fee and reports as camp.
func (k ComponentKind) ComponentType() ComponentKind {
	if k == KindDeposit {
		return KindCamp
	}
	return k
}

// ComponentID identifies one billable component of a reservation.
// Catalog components carry a numeric Ref, other charges carry a Key.
type ComponentID struct {
	Kind ComponentKind
	Ref  int64
	Key  string
}

func CampComponent() ComponentID    { return ComponentID{Kind: KindCamp} }
func DepositComponent() ComponentID { return ComponentID{Kind: KindDeposit} }
func DietComponent() ComponentID    { return ComponentID{Kind: KindDiet} }

func ProtectionComponent(id int64) ComponentID {
	return ComponentID{Kind: KindProtection, Ref: id}
}

func AddonComponent(id int64) ComponentID {
	return ComponentID{Kind: KindAddon, Ref: id}
}

func OtherComponent(key string) ComponentID {
	return ComponentID{Kind: KindOther, Key: key}
}

func (c ComponentID) String() string {
	switch c.Kind {
	case KindProtection, KindAddon:
		return fmt.Sprintf("%s:%d", c.Kind, c.Ref)
	case KindOther:
		return fmt.Sprintf("%s:%s", c.Kind, c.Key)
	default:
		return string(c.Kind)
	}
}

func (c ComponentID) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

func (c *ComponentID) UnmarshalText(text []byte) error {
	parsed, err := ParseComponentID(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// ParseComponentID is the inverse of ComponentID.String.
func ParseComponentID(s string) (ComponentID, error) {
	kind, ref, hasRef := strings.Cut(strings.TrimSpace(s), ":")
	k := ComponentKind(kind)
	if !k.IsValid() {
		return ComponentID{}, NewDomainError(CodeInvalidComponent, fmt.Sprintf("unknown component kind %q", kind))
	}

	switch k {
	case KindProtection, KindAddon:
		if !hasRef {
			return ComponentID{}, NewDomainError(CodeInvalidComponent, fmt.Sprintf("component %q requires an id", s))
		}
		id, err := strconv.ParseInt(ref, 10, 64)
		if err != nil || id <= 0 {
			return ComponentID{}, NewDomainError(CodeInvalidComponent, fmt.Sprintf("invalid component id in %q", s))
		}
		return ComponentID{Kind: k, Ref: id}, nil
	case KindOther:
		if !hasRef || ref == "" {
			return ComponentID{}, NewDomainError(CodeInvalidComponent, fmt.Sprintf("component %q requires a key", s))
		}
		return ComponentID{Kind: k, Key: ref}, nil
	default:
		if hasRef {
			return ComponentID{}, NewDomainError(CodeInvalidComponent, fmt.Sprintf("component %q takes no id", s))
		}
		return ComponentID{Kind: k}, nil
	}
}

// ContainsComponent reports whether id is in ids.
func ContainsComponent(ids []ComponentID, id ComponentID) bool {
	for _, x := range ids {
		if x == id {
			return true
		}
	}
	return false
}

// CatalogEntry is a protection or add-on with its price for a turnus.
type CatalogEntry struct {
	ID    int64           `json:"id"`
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
}
