package adapter

import (
	"fmt"

	"github.com/jmallari/jobmill/internal/model"
)

// Adapter kinds as they appear in source configuration. Each upstream schema
// gets its own tagged variant; new sources are added by registering a new
// kind here, never by branching inside a shared parse function.
const (
	KindRemotive  = "remotive"
	KindArbeitnow = "arbeitnow"
	KindHimalayas = "himalayas"
	KindKalibrr   = "kalibrr"
)

var registry = map[string]func() model.Adapter{
	KindRemotive:  func() model.Adapter { return &RemotiveAdapter{} },
	KindArbeitnow: func() model.Adapter { return &ArbeitnowAdapter{} },
	KindHimalayas: func() model.Adapter { return &HimalayasAdapter{} },
	KindKalibrr:   func() model.Adapter { return &KalibrrAdapter{} },
}

// New returns the adapter registered for the given kind tag, or an error for
// an unknown kind so the caller can report a configuration failure.
func New(kind string) (model.Adapter, error) {
	mk, ok := registry[kind]
	if !ok {
		return nil, fmt.Errorf("no adapter registered for kind %q", kind)
	}
	return mk(), nil
}

// Kinds returns the registered adapter kind tags.
func Kinds() []string {
	return []string{KindRemotive, KindArbeitnow, KindHimalayas, KindKalibrr}
}
