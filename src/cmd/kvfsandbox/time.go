// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package main

import (
	"time"
)

// pacing holds the tickers driving the render and event loops
type pacing struct {
	frameTicker *time.Ticker
	eventTicker *time.Ticker
}

// newPacing creates the tickers. A zero fps leaves frames unthrottled,
// which leaves the present mode in charge of the frame rate.
func newPacing(fps int, eventPollDelay time.Duration) *pacing {
	p := &pacing{
		eventTicker: time.NewTicker(eventPollDelay),
	}
	if fps > 0 {
		p.frameTicker = time.NewTicker(time.Second / time.Duration(fps))
	}
	return p
}

// Frame blocks until the next frame is due
func (p *pacing) Frame() {
	if p.frameTicker != nil {
		<-p.frameTicker.C
	}
}

// Events returns the channel ticking at the event poll rate
func (p *pacing) Events() <-chan time.Time {
	return p.eventTicker.C
}

func (p *pacing) Stop() {
	if p.frameTicker != nil {
		p.frameTicker.Stop()
	}
	p.eventTicker.Stop()
}
