// Package app holds the reputation ledger's application services: the ledger
// facade, the leaderboard cache, the score calculator, the anomaly detector and
// the settings cache. It depends only on domain interfaces; adapters are wired
// in cmd/server.
package app
