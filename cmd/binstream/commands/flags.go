package commands

import (
	"fmt"

	"github.com/spf13/pflag"

	"github.com/stewi1014/binstream"
	"github.com/stewi1014/binstream/encio"
)

var (
	_ pflag.Value = (*orderValue)(nil)
	_ pflag.Value = (*policyValue)(nil)
	_ pflag.Value = (*framingValue)(nil)
)

// orderValue is a flag holding an encio.ByteOrder.
type orderValue struct {
	order encio.ByteOrder
}

func (v *orderValue) String() string { return v.order.String() }

func (v *orderValue) Set(s string) error {
	o, ok := encio.ParseByteOrder(s)
	if !ok {
		return fmt.Errorf("unknown byte order %q", s)
	}
	v.order = o
	return nil
}

func (v *orderValue) Type() string { return "order" }

// policyValue is a flag holding a binstream.Policy.
type policyValue struct {
	policy binstream.Policy
}

func (v *policyValue) String() string { return v.policy.String() }

func (v *policyValue) Set(s string) error {
	p, ok := binstream.ParsePolicy(s)
	if !ok {
		return fmt.Errorf("unknown policy %q", s)
	}
	v.policy = p
	return nil
}

func (v *policyValue) Type() string { return "policy" }

// framingValue is a flag holding a binstream.Framing.
type framingValue struct {
	framing binstream.Framing
}

func (v *framingValue) String() string { return v.framing.String() }

func (v *framingValue) Set(s string) error {
	f, ok := binstream.ParseFraming(s)
	if !ok {
		return fmt.Errorf("unknown framing %q", s)
	}
	v.framing = f
	return nil
}

func (v *framingValue) Type() string { return "framing" }
