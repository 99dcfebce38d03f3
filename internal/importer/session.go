package importer

import (
	"github.com/rs/zerolog"

	"github.com/tkshop/catalog-service/internal/catalog"
	"github.com/tkshop/catalog-service/internal/wxr"
)

// Session is the state of one import run. It is created per run and discarded afterwards.
type Session struct {
	store       catalog.Store
	opts        Options
	pricing     PricingStrategy
	colors      *wxr.ColorFilter
	categories  *categoryIndex
	attachments wxr.AttachmentIndex
	result      *Result
	log         zerolog.Logger
	observer    Observer
}

func (s *Session) enter(state State, row int) {
	s.result.State = state
	if s.observer != nil {
		s.observer(s.result.RunID, state, row)
	}
}
