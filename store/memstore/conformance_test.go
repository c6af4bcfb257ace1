package memstore

import (
	"testing"

	"github.com/goshops-com/StormiDB/store"
	"github.com/goshops-com/StormiDB/store/storetest"
)

func TestConformance(t *testing.T) {
	storetest.RunConformanceTests(t, func() store.Store { return New() })
}
