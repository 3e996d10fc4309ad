package models

// Status state machines for every entity, kept as explicit tables so a
// transition is validated in one place before any write instead of being
// re-checked ad hoc at call sites.

var collectionTransitions = map[CollectionStatus][]CollectionStatus{
	CollectionStatusPending:    {CollectionStatusProcessing},
	CollectionStatusProcessing: {CollectionStatusPublished, CollectionStatusFailed},
	CollectionStatusPublished:  {CollectionStatusArchived},
	CollectionStatusFailed:     {CollectionStatusArchived},
	CollectionStatusArchived:   {},
}

var nftTransitions = map[NFTStatus][]NFTStatus{
	NFTStatusPending:       {NFTStatusProcessing},
	NFTStatusProcessing:    {NFTStatusMinted, NFTStatusFailed},
	NFTStatusMinted:        {NFTStatusLinked},
	NFTStatusLinked:        {NFTStatusVerified, NFTStatusCancelled},
	NFTStatusVerified:      {NFTStatusInCirculation, NFTStatusCancelled},
	NFTStatusInCirculation: {NFTStatusDelivered, NFTStatusCancelled, NFTStatusBurned},
	NFTStatusDelivered:     {NFTStatusConsumed, NFTStatusCancelled, NFTStatusBurned},
	NFTStatusConsumed:      {},
	NFTStatusFailed:        {},
	NFTStatusCancelled:     {},
	NFTStatusBurned:        {},
}

var offerTransitions = map[OfferStatus][]OfferStatus{
	OfferStatusOpen:       {OfferStatusInProgress},
	OfferStatusInProgress: {OfferStatusClosed, OfferStatusCompleted, OfferStatusFailed},
	OfferStatusClosed:     {},
	OfferStatusCompleted:  {},
	OfferStatusFailed:     {},
}

var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending: {
		OrderStatusCancelledByProducer,
		OrderStatusCancelledByConsumer,
		OrderStatusAwaitingDelivery,
		OrderStatusAwaitingConfirmation,
		OrderStatusCompleted,
		OrderStatusFailed,
	},
	OrderStatusAwaitingDelivery:     {OrderStatusAwaitingConfirmation},
	OrderStatusAwaitingConfirmation: {OrderStatusCompleted},
	OrderStatusCancelledByProducer:  {},
	OrderStatusCancelledByConsumer:  {},
	OrderStatusCompleted:            {},
	OrderStatusFailed:               {},
}

// CollectionCanTransition reports whether a collection may move from one
// status to another.
func CollectionCanTransition(from, to CollectionStatus) bool {
	for _, s := range collectionTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// NFTCanTransition reports whether an NFT may move from one status to
// another.
func NFTCanTransition(from, to NFTStatus) bool {
	for _, s := range nftTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// OfferCanTransition reports whether an offer may move from one status
// to another.
func OfferCanTransition(from, to OfferStatus) bool {
	for _, s := range offerTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// OrderCanTransition reports whether an order may move from one status
// to another.
func OrderCanTransition(from, to OrderStatus) bool {
	for _, s := range orderTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}
