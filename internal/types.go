package internal

import (
	"context"

	"sjsage522/profitsniper/helpers"
	"sjsage522/profitsniper/internal/classifier"
	"sjsage522/profitsniper/internal/crawler"
	"sjsage522/profitsniper/internal/currency"
	"sjsage522/profitsniper/internal/dedup"
	"sjsage522/profitsniper/internal/models"
	"sjsage522/profitsniper/internal/profile"
	"sjsage522/profitsniper/internal/profit"
	"sjsage522/profitsniper/internal/seen"
	"sjsage522/profitsniper/services/queue"
	"sjsage522/profitsniper/services/store"
)

// MechanismResolver classifies how a listing can be bought
type MechanismResolver interface {
	Resolve(ctx context.Context, id string) models.Mechanism
}

// Dependencies holds the state objects and services one discovery worker owns
type Dependencies struct {
	Profile    profile.Profile
	Source     crawler.Source
	Normalizer *currency.Normalizer
	Classifier *classifier.Classifier
	Mechanism  MechanismResolver
	Estimator  *profit.Estimator
	Detector   *dedup.Detector
	Seen       *seen.Set
	Finds      *seen.FindLog
	Store      store.Store
	Queue      *queue.Queue
	Events     *helpers.EventLog
}
