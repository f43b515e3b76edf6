package taskapi

import (
	"github.com/lab4/taskapi/feeders"
)

// ConfigFeeders provides the default set of configuration feeders used by
// applications that do not pass WithConfigFeeders.
var ConfigFeeders = []Feeder{
	feeders.NewEnvFeeder(),
}

// Feeder populates a configuration structure from a source.
type Feeder interface {
	Feed(structure any) error
}

// ComplexFeeder extends Feeder for sources that hold several sections,
// such as a YAML file with one top-level key per module.
type ComplexFeeder interface {
	Feeder
	FeedKey(key string, target any) error
}
