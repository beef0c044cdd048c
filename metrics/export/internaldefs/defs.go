package internaldefs

import (
	cursos "github.com/MrEthical07/cursos"
)

// CounterDef names one exported counter.
type CounterDef struct {
	ID   cursos.MetricID
	Name string
	Help string
}

// HistogramDef names one exported histogram.
type HistogramDef struct {
	ID   cursos.MetricID
	Name string
	Help string
}

// CounterDefs lists every counter in export order.
var CounterDefs = []CounterDef{
	{ID: cursos.MetricDispatch, Name: "cursos_dispatch_total", Help: "Requests dispatched by the front controller."},
	{ID: cursos.MetricNotFound, Name: "cursos_not_found_total", Help: "Dispatches with no matching route."},
	{ID: cursos.MetricGateRedirect, Name: "cursos_gate_redirect_total", Help: "Anonymous requests redirected to the login page."},
	{ID: cursos.MetricControllerFailure, Name: "cursos_controller_failure_total", Help: "Controller errors answered with a 500."},
	{ID: cursos.MetricRenderFailure, Name: "cursos_render_failure_total", Help: "Template execution failures."},
	{ID: cursos.MetricSessionCommitFailure, Name: "cursos_session_commit_failure_total", Help: "Sessions that could not be written back."},
	{ID: cursos.MetricLoginSuccess, Name: "cursos_login_success_total", Help: "Successful logins."},
	{ID: cursos.MetricLoginFailure, Name: "cursos_login_failure_total", Help: "Rejected login credentials."},
	{ID: cursos.MetricLoginRateLimited, Name: "cursos_login_rate_limited_total", Help: "Logins refused by the throttle."},
	{ID: cursos.MetricLogout, Name: "cursos_logout_total", Help: "Logouts of logged sessions."},
	{ID: cursos.MetricCourseSaved, Name: "cursos_course_saved_total", Help: "Course inserts and updates."},
	{ID: cursos.MetricCourseRemoved, Name: "cursos_course_removed_total", Help: "Course removals."},
}

// HistogramDefs lists every histogram in export order.
var HistogramDefs = []HistogramDef{
	{ID: cursos.MetricDispatchLatency, Name: "cursos_dispatch_latency_seconds", Help: "Controller dispatch latency histogram."},
}

// HistogramBounds are the upper bounds of the eight latency buckets, in seconds.
var HistogramBounds = []string{
	"0.005",
	"0.01",
	"0.025",
	"0.05",
	"0.1",
	"0.25",
	"0.5",
	"+Inf",
}

// HistogramBoundSuffix are the bounds in a form usable inside instrument names.
var HistogramBoundSuffix = []string{
	"0_005",
	"0_01",
	"0_025",
	"0_05",
	"0_1",
	"0_25",
	"0_5",
	"inf",
}

// NormalizeBuckets copies raw into a fixed eight-bucket array, zero-filling.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets converts per-bucket counts into cumulative counts.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
