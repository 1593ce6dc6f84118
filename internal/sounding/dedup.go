package sounding

import (
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/couchcryptid/storm-sounding-service/internal/domain"
)

// Channel names one outward notification stream.
type Channel string

const (
	ChannelTimeIndex    Channel = "time_index"
	ChannelTimeAxis     Channel = "time_axis"
	ChannelLocation     Channel = "location"
	ChannelLocationAxis Channel = "location_axis"
	ChannelProfiles     Channel = "profiles"
)

// Channels lists every channel in delivery order.
var Channels = []Channel{ChannelTimeAxis, ChannelTimeIndex, ChannelLocation, ChannelLocationAxis, ChannelProfiles}

// equalOpts make missing samples compare equal and treat nil and empty
// slices alike.
var equalOpts = []cmp.Option{cmpopts.EquateNaNs(), cmpopts.EquateEmpty()}

type cached[T any] struct {
	value T
	set   bool
}

// offer stores v and reports true unless v equals the cached value.
func (c *cached[T]) offer(v T) bool {
	if c.set && cmp.Equal(c.value, v, equalOpts...) {
		return false
	}
	c.value, c.set = v, true
	return true
}

// DedupState holds the last value delivered on each channel. It is owned by
// a Dispatcher and only touched under the Dispatcher's lock.
type DedupState struct {
	timeIndex    cached[int]
	timeAxis     cached[[]time.Time]
	location     cached[domain.Point]
	locationAxis cached[[]domain.Point]
	profiles     cached[domain.ProfileSet]
}
