// Package kvstore persists platform state in an embedded pebble database.
//
// Snapshots are JSON values under typed key prefixes. Secondary indexes
// (pending games, games per player, tournaments) are roaring bitmaps over
// the numeric part of the ids, written in the same batch as the snapshot
// they describe.
package kvstore

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/RoaringBitmap/roaring"
	"github.com/cockroachdb/pebble"
	"github.com/cockroachdb/pebble/vfs"

	"github.com/chdb/checkers/internal/models"
	"github.com/chdb/checkers/internal/tournament"
)

const (
	prefixGame       = "game/"
	prefixTournament = "tournament/"
	prefixStats      = "stats/"
	prefixInvite     = "invite/"
	prefixCounter    = "counter/"
	prefixPlayerIdx  = "idx/player/"

	keyQueue          = "meta/queue"
	keyPlayers        = "meta/players"
	keyPendingIdx     = "idx/pending"
	keyTournamentsIdx = "idx/tournaments"

	counterGame       = "game"
	counterTournament = "tournament"
)

type Store struct {
	mu sync.Mutex
	db *pebble.DB
}

// Open opens or creates a store in dir.
func Open(dir string) (*Store, error) {
	return open(dir, &pebble.Options{})
}

// OpenInMemory returns a store backed by an in-memory filesystem.
func OpenInMemory() (*Store, error) {
	return open("", &pebble.Options{FS: vfs.NewMem()})
}

func open(dir string, opts *pebble.Options) (*Store, error) {
	db, err := pebble.Open(dir, opts)
	if err != nil {
		return nil, fmt.Errorf("open pebble: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// get copies the value for key; it returns nil, nil when key is absent.
func (s *Store) get(key string) ([]byte, error) {
	value, closer, err := s.db.Get([]byte(key))
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer closer.Close()

	out := make([]byte, len(value))
	copy(out, value)
	return out, nil
}

func (s *Store) getJSON(key string, v interface{}) (bool, error) {
	raw, err := s.get(key)
	if err != nil || raw == nil {
		return false, err
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

func setJSON(b *pebble.Batch, key string, v interface{}) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return b.Set([]byte(key), raw, nil)
}

func (s *Store) bitmap(key string) (*roaring.Bitmap, error) {
	bm := roaring.New()
	raw, err := s.get(key)
	if err != nil || raw == nil {
		return bm, err
	}
	if err := bm.UnmarshalBinary(raw); err != nil {
		return nil, fmt.Errorf("decode bitmap %s: %w", key, err)
	}
	return bm, nil
}

func setBitmap(b *pebble.Batch, key string, bm *roaring.Bitmap) error {
	raw, err := bm.MarshalBinary()
	if err != nil {
		return fmt.Errorf("encode bitmap %s: %w", key, err)
	}
	return b.Set([]byte(key), raw, nil)
}

func (s *Store) next(name string) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := prefixCounter + name
	raw, err := s.get(key)
	if err != nil {
		return 0, err
	}
	var n uint64
	if len(raw) == 8 {
		n = binary.BigEndian.Uint64(raw)
	}
	n++

	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, n)
	if err := s.db.Set([]byte(key), buf, pebble.Sync); err != nil {
		return 0, err
	}
	return n, nil
}

func (s *Store) NextGameID() (string, error) {
	n, err := s.next(counterGame)
	if err != nil {
		return "", err
	}
	return models.GameID(n), nil
}

func (s *Store) NextTournamentID() (string, error) {
	n, err := s.next(counterTournament)
	if err != nil {
		return "", err
	}
	return models.TournamentID(n), nil
}

func (s *Store) GetGame(id string) (*models.Game, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.game(id)
}

func (s *Store) game(id string) (*models.Game, error) {
	g := &models.Game{}
	ok, err := s.getJSON(prefixGame+id, g)
	if err != nil || !ok {
		return nil, err
	}
	return g, nil
}

// SaveGame writes the snapshot and keeps the pending and per-player
// indexes in step with it.
func (s *Store) SaveGame(g *models.Game) error {
	seq, ok := models.GameSeq(g.ID)
	if !ok {
		return fmt.Errorf("unindexable game id %q", g.ID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	pending, err := s.bitmap(keyPendingIdx)
	if err != nil {
		return err
	}
	if g.Status == models.GamePending {
		pending.Add(seq)
	} else {
		pending.Remove(seq)
	}

	b := s.db.NewBatch()
	defer b.Close()

	if err := setJSON(b, prefixGame+g.ID, g); err != nil {
		return err
	}
	if err := setBitmap(b, keyPendingIdx, pending); err != nil {
		return err
	}
	for _, player := range []string{g.RedPlayer, g.BlackPlayer} {
		if player == "" {
			continue
		}
		idx, err := s.bitmap(prefixPlayerIdx + player)
		if err != nil {
			return err
		}
		if idx.Contains(seq) {
			continue
		}
		idx.Add(seq)
		if err := setBitmap(b, prefixPlayerIdx+player, idx); err != nil {
			return err
		}
	}
	return b.Commit(pebble.Sync)
}

func (s *Store) gamesFrom(bm *roaring.Bitmap) ([]*models.Game, error) {
	games := make([]*models.Game, 0, bm.GetCardinality())
	for _, seq := range bm.ToArray() {
		g, err := s.game(models.GameID(uint64(seq)))
		if err != nil {
			return nil, err
		}
		if g != nil {
			games = append(games, g)
		}
	}
	return games, nil
}

func (s *Store) ListPendingGames() ([]*models.Game, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	bm, err := s.bitmap(keyPendingIdx)
	if err != nil {
		return nil, err
	}
	return s.gamesFrom(bm)
}

func (s *Store) ListPlayerGames(player string) ([]*models.Game, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	bm, err := s.bitmap(prefixPlayerIdx + player)
	if err != nil {
		return nil, err
	}
	return s.gamesFrom(bm)
}

func (s *Store) GetTournament(id string) (*models.Tournament, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tournament(id)
}

func (s *Store) tournament(id string) (*models.Tournament, error) {
	t := &models.Tournament{}
	ok, err := s.getJSON(prefixTournament+id, t)
	if err != nil || !ok {
		return nil, err
	}
	return t, nil
}

func (s *Store) SaveTournament(t *models.Tournament) error {
	seq, ok := models.TournamentSeq(t.ID)
	if !ok {
		return fmt.Errorf("unindexable tournament id %q", t.ID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	idx, err := s.bitmap(keyTournamentsIdx)
	if err != nil {
		return err
	}

	b := s.db.NewBatch()
	defer b.Close()

	if err := setJSON(b, prefixTournament+t.ID, t); err != nil {
		return err
	}
	if !idx.Contains(seq) {
		idx.Add(seq)
		if err := setBitmap(b, keyTournamentsIdx, idx); err != nil {
			return err
		}
	}
	return b.Commit(pebble.Sync)
}

func (s *Store) ListTournaments() ([]*models.Tournament, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx, err := s.bitmap(keyTournamentsIdx)
	if err != nil {
		return nil, err
	}
	out := make([]*models.Tournament, 0, idx.GetCardinality())
	for _, seq := range idx.ToArray() {
		t, err := s.tournament(models.TournamentID(uint64(seq)))
		if err != nil {
			return nil, err
		}
		if t != nil {
			out = append(out, t)
		}
	}
	return out, nil
}

func (s *Store) SaveInviteCode(code, tournamentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Set([]byte(prefixInvite+tournament.NormalizeCode(code)), []byte(tournamentID), pebble.Sync)
}

func (s *Store) GetTournamentByInviteCode(code string) (*models.Tournament, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, err := s.get(prefixInvite + tournament.NormalizeCode(code))
	if err != nil || id == nil {
		return nil, err
	}
	return s.tournament(string(id))
}

// GetPlayerStats returns default stats for players never seen before.
func (s *Store) GetPlayerStats(player string) (*models.PlayerStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats := &models.PlayerStats{}
	ok, err := s.getJSON(prefixStats+player, stats)
	if err != nil {
		return nil, err
	}
	if !ok {
		return models.NewPlayerStats(player), nil
	}
	return stats, nil
}

func (s *Store) SavePlayerStats(stats *models.PlayerStats) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var players []string
	if _, err := s.getJSON(keyPlayers, &players); err != nil {
		return err
	}

	b := s.db.NewBatch()
	defer b.Close()

	if err := setJSON(b, prefixStats+stats.PlayerID, stats); err != nil {
		return err
	}
	i := sort.SearchStrings(players, stats.PlayerID)
	if i == len(players) || players[i] != stats.PlayerID {
		players = append(players, "")
		copy(players[i+1:], players[i:])
		players[i] = stats.PlayerID
		if err := setJSON(b, keyPlayers, players); err != nil {
			return err
		}
	}
	return b.Commit(pebble.Sync)
}

func (s *Store) ListPlayerStats() ([]*models.PlayerStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var players []string
	if _, err := s.getJSON(keyPlayers, &players); err != nil {
		return nil, err
	}
	out := make([]*models.PlayerStats, 0, len(players))
	for _, p := range players {
		stats := &models.PlayerStats{}
		ok, err := s.getJSON(prefixStats+p, stats)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, stats)
		}
	}
	return out, nil
}
