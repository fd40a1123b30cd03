package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordTransition(t *testing.T) {
	before := testutil.ToFloat64(RideTransitionsTotal.WithLabelValues("accepted"))
	RecordTransition("accepted")
	RecordTransition(" Accepted ")
	assert.Equal(t, before+2, testutil.ToFloat64(RideTransitionsTotal.WithLabelValues("accepted")))

	unknown := testutil.ToFloat64(RideTransitionsTotal.WithLabelValues("unknown"))
	RecordTransition("teleported")
	assert.Equal(t, unknown+1, testutil.ToFloat64(RideTransitionsTotal.WithLabelValues("unknown")))
}

func TestRecordTransitionFailure(t *testing.T) {
	before := testutil.ToFloat64(RideTransitionFailuresTotal.WithLabelValues("in_progress", "actor_mismatch"))
	RecordTransitionFailure("in_progress", "ACTOR_MISMATCH")
	assert.Equal(t, before+1, testutil.ToFloat64(RideTransitionFailuresTotal.WithLabelValues("in_progress", "actor_mismatch")))

	empty := testutil.ToFloat64(RideTransitionFailuresTotal.WithLabelValues("cancelled", "unknown"))
	RecordTransitionFailure("cancelled", "")
	assert.Equal(t, empty+1, testutil.ToFloat64(RideTransitionFailuresTotal.WithLabelValues("cancelled", "unknown")))
}

func TestIncPublishFailure(t *testing.T) {
	before := testutil.ToFloat64(RideEventPublishFailuresTotal)
	IncPublishFailure()
	assert.Equal(t, before+1, testutil.ToFloat64(RideEventPublishFailuresTotal))
}
