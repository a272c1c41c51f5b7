package service

import (
	"projectchat.app/relay/internal/queue"
	"projectchat.app/relay/internal/store"
)

type Services struct {
	stores   *store.Stores
	relay    CompletionRelay
	producer queue.Producer
	cfg      ExchangeConfig
}

func NewServices(stores *store.Stores, relay CompletionRelay, producer queue.Producer, cfg ExchangeConfig) *Services {
	return &Services{
		stores:   stores,
		relay:    relay,
		producer: producer,
		cfg:      cfg,
	}
}

func (s *Services) Ownership() OwnershipResolver {
	return NewOwnershipResolver(s.stores.Projects())
}

func (s *Services) Exchanges() ExchangeService {
	return NewExchangeService(
		s.Ownership(),
		s.stores.Conversations(),
		s.relay,
		s.producer,
		s.cfg,
	)
}
