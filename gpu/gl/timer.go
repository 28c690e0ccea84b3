// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package gl

import glcore "github.com/go-gl/gl/v4.6-core/gl"

// BeginTimer and EndTimer implement gpu.DrawTimer using a
// single TIME_ELAPSED query per frame. GL_TIME_ELAPSED
// queries cannot be nested, so a query already in flight is
// left alone (Context only brackets once per frame anyway).
func (d *device) BeginTimer() {
	if !d.timerAvailable || d.timerActive {
		return
	}
	if d.queryTimer == 0 {
		glcore.GenQueries(1, &d.queryTimer)
	}
	glcore.BeginQuery(glcore.TIME_ELAPSED, d.queryTimer)
	d.timerActive = true
}

func (d *device) EndTimer() {
	if !d.timerActive {
		return
	}
	glcore.EndQuery(glcore.TIME_ELAPSED)
	var available int32
	for available == 0 {
		glcore.GetQueryObjectiv(d.queryTimer, glcore.QUERY_RESULT_AVAILABLE, &available)
	}
	var ns uint64
	glcore.GetQueryObjectui64v(d.queryTimer, glcore.QUERY_RESULT, &ns)
	d.lastDrawTimeNS = int64(ns)
	d.timerActive = false
}

func (d *device) DrawTimeNS() int64 { return d.lastDrawTimeNS }
