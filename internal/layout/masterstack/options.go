package masterstack

import (
	"math"
	"strings"

	"github.com/grovetools/layman/errors"
	"github.com/grovetools/layman/internal/layout"
)

// StackLayout is the container layout of the stack.
type StackLayout int

const (
	SplitV StackLayout = iota
	SplitH
	Stacking
	Tabbed
)

var stackLayoutNames = []string{"splitv", "splith", "stacking", "tabbed"}

func (l StackLayout) String() string {
	return stackLayoutNames[l]
}

// Next cycles splitv, splith, stacking, tabbed, splitv.
func (l StackLayout) Next() StackLayout {
	return (l + 1) % StackLayout(len(stackLayoutNames))
}

// Side is the side of the screen the stack occupies.
type Side int

const (
	Right Side = iota
	Left
)

var sideNames = []string{"right", "left"}

func (s Side) String() string {
	return sideNames[s]
}

func (s Side) Opposite() Side {
	if s == Left {
		return Right
	}
	return Left
}

// Options are the knobs read from the merged option tables.
type Options struct {
	MasterWidth       float64 `mapstructure:"masterWidth"`
	StackSide         string  `mapstructure:"stackSide"`
	StackLayout       string  `mapstructure:"stackLayout"`
	VisibleStackLimit int     `mapstructure:"visibleStackLimit"`
	MasterCount       int     `mapstructure:"masterCount"`
}

// DefaultOptions returns the knobs used when nothing is configured.
func DefaultOptions() Options {
	return Options{
		MasterWidth:       50,
		StackSide:         Right.String(),
		StackLayout:       SplitV.String(),
		VisibleStackLimit: 3,
		MasterCount:       1,
	}
}

type knobs struct {
	masterWidth       int
	stackSide         Side
	stackLayout       StackLayout
	visibleStackLimit int
	masterCount       int
}

func loadKnobs(p layout.Params) (knobs, error) {
	opts := DefaultOptions()
	if err := p.Decode(&opts); err != nil {
		return knobs{}, errors.Wrap(err, errors.ErrCodeConfigInvalid,
			"invalid "+Name+" options for workspace "+p.WorkspaceName)
	}
	return opts.validate()
}

func (o Options) validate() (knobs, error) {
	var k knobs
	if !(o.MasterWidth > 0 && o.MasterWidth < 100) {
		return k, errors.InvalidOption("masterWidth", o.MasterWidth,
			"must be a number between 0 and 100 exclusive")
	}
	k.masterWidth = int(math.Trunc(o.MasterWidth))

	side, ok := parseEnum(o.StackSide, sideNames)
	if !ok {
		return k, errors.InvalidOption("stackSide", o.StackSide,
			"valid options: "+strings.Join(sideNames, ", "))
	}
	k.stackSide = Side(side)

	sl, ok := parseEnum(o.StackLayout, stackLayoutNames)
	if !ok {
		return k, errors.InvalidOption("stackLayout", o.StackLayout,
			"valid options: "+strings.Join(stackLayoutNames, ", "))
	}
	k.stackLayout = StackLayout(sl)

	if o.VisibleStackLimit < 0 {
		return k, errors.InvalidOption("visibleStackLimit", o.VisibleStackLimit,
			"must be a non-negative integer")
	}
	k.visibleStackLimit = o.VisibleStackLimit

	if o.MasterCount < 1 {
		return k, errors.InvalidOption("masterCount", o.MasterCount, "must be an integer >= 1")
	}
	k.masterCount = o.MasterCount
	return k, nil
}

func parseEnum(v string, names []string) (int, bool) {
	for i, n := range names {
		if strings.EqualFold(v, n) {
			return i, true
		}
	}
	return 0, false
}
