package clashapi

import (
	"context"
	"fmt"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/riskibarqy/clash-tables/internal/domain/gamedata"
)

const apiTimeLayout = "20060102T150405.000Z"

// Session is a logged-in API session.
type Session struct {
	client *Client
	token  string
	closed atomic.Bool
}

var _ gamedata.OwnedSession = (*Session)(nil)

func (s *Session) Close() error {
	if s.closed.CompareAndSwap(false, true) {
		s.client.logger.Debug("clash api session closed")
	}
	return nil
}

func (s *Session) do(ctx context.Context, path string, query map[string]string, target any) error {
	if s.closed.Load() {
		return fmt.Errorf("clash api session is closed")
	}
	return s.client.doJSON(ctx, s.token, path, query, target)
}

func (s *Session) GoldPassSeason(ctx context.Context) (gamedata.Season, error) {
	var resp goldPassSeasonResponse
	if err := s.do(ctx, "/goldpass/seasons/current", nil, &resp); err != nil {
		return gamedata.Season{}, fmt.Errorf("fetch gold pass season: %w", err)
	}

	start, err := time.Parse(apiTimeLayout, resp.StartTime)
	if err != nil {
		return gamedata.Season{}, fmt.Errorf("parse season start %q: %w", resp.StartTime, err)
	}
	end, err := time.Parse(apiTimeLayout, resp.EndTime)
	if err != nil {
		return gamedata.Season{}, fmt.Errorf("parse season end %q: %w", resp.EndTime, err)
	}
	return gamedata.Season{StartTime: start, EndTime: end}, nil
}

func (s *Session) Clan(ctx context.Context, tag string) (gamedata.Clan, error) {
	var resp clanResponse
	if err := s.do(ctx, tagPath("/clans/", tag), nil, &resp); err != nil {
		return gamedata.Clan{}, fmt.Errorf("fetch clan tag=%s: %w", tag, err)
	}
	return mapClan(resp), nil
}

func (s *Session) Player(ctx context.Context, tag string) (gamedata.Player, error) {
	var resp playerResponse
	if err := s.do(ctx, tagPath("/players/", tag), nil, &resp); err != nil {
		return gamedata.Player{}, fmt.Errorf("fetch player tag=%s: %w", tag, err)
	}
	return mapPlayer(resp), nil
}

// Locations walks every page of the location list.
func (s *Session) Locations(ctx context.Context) ([]gamedata.Location, error) {
	out := make([]gamedata.Location, 0, 256)
	after := ""
	for {
		var resp locationListResponse
		if err := s.do(ctx, "/locations", pageQuery(defaultPageSize, after), &resp); err != nil {
			return nil, fmt.Errorf("fetch locations after=%q: %w", after, err)
		}
		for _, item := range resp.Items {
			out = append(out, mapLocation(item))
		}
		next := resp.Paging.Cursors.After
		if next == "" || next == after || len(resp.Items) == 0 {
			return out, nil
		}
		after = next
	}
}

// LocationClanRankings returns up to limit ranked clans; limit <= 0 reads
// every page.
func (s *Session) LocationClanRankings(ctx context.Context, locationID, limit int) ([]gamedata.RankedClan, error) {
	path := "/locations/" + strconv.Itoa(locationID) + "/rankings/clans"
	out := make([]gamedata.RankedClan, 0, max(limit, 0))
	after := ""
	for {
		pageSize := defaultPageSize
		if limit > 0 {
			pageSize = min(pageSize, limit-len(out))
		}
		var resp rankedClanListResponse
		if err := s.do(ctx, path, pageQuery(pageSize, after), &resp); err != nil {
			return nil, fmt.Errorf("fetch clan rankings location_id=%d: %w", locationID, err)
		}
		for _, item := range resp.Items {
			out = append(out, mapRankedClan(item))
		}
		next := resp.Paging.Cursors.After
		if next == "" || next == after || len(resp.Items) == 0 || (limit > 0 && len(out) >= limit) {
			return out, nil
		}
		after = next
	}
}
