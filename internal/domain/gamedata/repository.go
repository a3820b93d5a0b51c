package gamedata

import "context"

// Session is a borrowed upstream API session. Holders must not close it.
type Session interface {
	GoldPassSeason(ctx context.Context) (Season, error)
	Clan(ctx context.Context, tag string) (Clan, error)
	Player(ctx context.Context, tag string) (Player, error)
	Locations(ctx context.Context) ([]Location, error)
	LocationClanRankings(ctx context.Context, locationID, limit int) ([]RankedClan, error)
}

// OwnedSession is a session whose holder is responsible for closing it.
type OwnedSession interface {
	Session
	Close() error
}

// SessionOpener logs in to the upstream API.
type SessionOpener interface {
	Open(ctx context.Context) (OwnedSession, error)
}

// Catalog serves static unit data.
type Catalog interface {
	Item(ctx context.Context, category Category, name string) (Item, error)
	// Enrich fills unit ids and per town hall caps on a fetched player.
	Enrich(ctx context.Context, player *Player)
}
