package services

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/volkovda/chess-arena/models"
	"github.com/volkovda/chess-arena/repositories"
	"github.com/volkovda/chess-arena/storage"
)

// In-memory репозитории для сервисных тестов. Параметр exec игнорируется:
// транзакционные границы проверяются через sqlmock на уровне *sql.DB.

type fakeTournamentRepo struct {
	mu          sync.Mutex
	tournaments map[int]*models.Tournament
}

func newFakeTournamentRepo(ts ...*models.Tournament) *fakeTournamentRepo {
	r := &fakeTournamentRepo{tournaments: make(map[int]*models.Tournament)}
	for _, t := range ts {
		r.tournaments[t.ID] = t
	}
	return r
}

func (r *fakeTournamentRepo) Create(ctx context.Context, t *models.Tournament) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t.ID = len(r.tournaments) + 1
	r.tournaments[t.ID] = t
	return nil
}

func (r *fakeTournamentRepo) GetByID(ctx context.Context, id int) (*models.Tournament, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tournaments[id]
	if !ok {
		return nil, repositories.ErrTournamentNotFound
	}
	cp := *t
	return &cp, nil
}

func (r *fakeTournamentRepo) List(ctx context.Context) ([]*models.Tournament, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*models.Tournament, 0, len(r.tournaments))
	for _, t := range r.tournaments {
		cp := *t
		out = append(out, &cp)
	}
	return out, nil
}

func (r *fakeTournamentRepo) UpdateCurrentRound(ctx context.Context, exec repositories.SQLExecutor, id int, currentRound int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tournaments[id]
	if !ok {
		return repositories.ErrTournamentNotFound
	}
	t.CurrentRound = currentRound
	return nil
}

type fakeRegistrationRepo struct {
	mu   sync.Mutex
	regs map[int]*models.Registration
}

func newFakeRegistrationRepo(regs ...*models.Registration) *fakeRegistrationRepo {
	r := &fakeRegistrationRepo{regs: make(map[int]*models.Registration)}
	for _, reg := range regs {
		r.regs[reg.ID] = reg
	}
	return r
}

func (r *fakeRegistrationRepo) Create(ctx context.Context, reg *models.Registration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	reg.ID = len(r.regs) + 1
	r.regs[reg.ID] = reg
	return nil
}

func (r *fakeRegistrationRepo) GetByID(ctx context.Context, id int) (*models.Registration, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	reg, ok := r.regs[id]
	if !ok {
		return nil, repositories.ErrRegistrationNotFound
	}
	cp := *reg
	return &cp, nil
}

// ListActiveByTournament повторяет порядок SQL-реализации: pairing_number
// по возрастанию (NULL в конце), внутри NULL - рейтинг по убыванию, затем id.
func (r *fakeRegistrationRepo) ListActiveByTournament(ctx context.Context, tournamentID int) ([]*models.Registration, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*models.Registration, 0)
	for _, reg := range r.regs {
		if reg.TournamentID != tournamentID {
			continue
		}
		if reg.Status != models.RegistrationRegistered && reg.Status != models.RegistrationConfirmed {
			continue
		}
		cp := *reg
		if reg.PairingNumber != nil {
			n := *reg.PairingNumber
			cp.PairingNumber = &n
		}
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		switch {
		case a.PairingNumber != nil && b.PairingNumber != nil:
			return *a.PairingNumber < *b.PairingNumber
		case a.PairingNumber != nil:
			return true
		case b.PairingNumber != nil:
			return false
		case a.Rating != b.Rating:
			return a.Rating > b.Rating
		}
		return a.ID < b.ID
	})
	return out, nil
}

func (r *fakeRegistrationRepo) UpdateStatus(ctx context.Context, id int, status models.RegistrationStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	reg, ok := r.regs[id]
	if !ok {
		return repositories.ErrRegistrationNotFound
	}
	reg.Status = status
	return nil
}

func (r *fakeRegistrationRepo) AssignPairingNumber(ctx context.Context, exec repositories.SQLExecutor, id int, pairingNumber int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	reg, ok := r.regs[id]
	if !ok {
		return repositories.ErrRegistrationNotFound
	}
	if reg.PairingNumber != nil {
		return repositories.ErrRegistrationNotFound
	}
	n := pairingNumber
	reg.PairingNumber = &n
	return nil
}

type fakeGameRepo struct {
	mu     sync.Mutex
	nextID int
	games  map[int]*models.Game
}

func newFakeGameRepo() *fakeGameRepo {
	return &fakeGameRepo{nextID: 1, games: make(map[int]*models.Game)}
}

func (r *fakeGameRepo) Create(ctx context.Context, exec repositories.SQLExecutor, game *models.Game) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	game.ID = r.nextID
	r.nextID++
	cp := *game
	r.games[game.ID] = &cp
	return nil
}

func (r *fakeGameRepo) GetByID(ctx context.Context, id int) (*models.Game, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	g, ok := r.games[id]
	if !ok {
		return nil, repositories.ErrGameNotFound
	}
	cp := *g
	return &cp, nil
}

func (r *fakeGameRepo) list(filter func(*models.Game) bool) []*models.Game {
	out := make([]*models.Game, 0)
	for _, g := range r.games {
		if filter(g) {
			cp := *g
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].RoundNumber != out[j].RoundNumber {
			return out[i].RoundNumber < out[j].RoundNumber
		}
		return out[i].BoardNumber < out[j].BoardNumber
	})
	return out
}

func (r *fakeGameRepo) ListByRound(ctx context.Context, tournamentID, roundNumber int) ([]*models.Game, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.list(func(g *models.Game) bool {
		return g.TournamentID == tournamentID && g.RoundNumber == roundNumber
	}), nil
}

func (r *fakeGameRepo) ListBelowRound(ctx context.Context, tournamentID, roundNumber int) ([]*models.Game, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.list(func(g *models.Game) bool {
		return g.TournamentID == tournamentID && g.RoundNumber < roundNumber
	}), nil
}

func (r *fakeGameRepo) ListDecidedByTournament(ctx context.Context, tournamentID int) ([]*models.Game, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.list(func(g *models.Game) bool {
		return g.TournamentID == tournamentID && g.Result.Decided()
	}), nil
}

func (r *fakeGameRepo) MaxRound(ctx context.Context, exec repositories.SQLExecutor, tournamentID int) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	max := 0
	for _, g := range r.games {
		if g.TournamentID == tournamentID && g.RoundNumber > max {
			max = g.RoundNumber
		}
	}
	return max, nil
}

func (r *fakeGameRepo) CountDecidedInRound(ctx context.Context, exec repositories.SQLExecutor, tournamentID, roundNumber int) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for _, g := range r.games {
		if g.TournamentID == tournamentID && g.RoundNumber == roundNumber && g.Result.Decided() {
			count++
		}
	}
	return count, nil
}

func (r *fakeGameRepo) DeleteByRound(ctx context.Context, exec repositories.SQLExecutor, tournamentID, roundNumber int) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var deleted int64
	for id, g := range r.games {
		if g.TournamentID == tournamentID && g.RoundNumber == roundNumber {
			delete(r.games, id)
			deleted++
		}
	}
	return deleted, nil
}

func (r *fakeGameRepo) UpdateResult(ctx context.Context, exec repositories.SQLExecutor, id int, result models.GameResult, status models.GameStatus, pgn *string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	g, ok := r.games[id]
	if !ok {
		return repositories.ErrGameNotFound
	}
	g.Result = result
	g.Status = status
	if pgn != nil {
		g.PGN = pgn
	}
	return nil
}

func (r *fakeGameRepo) RoundSummaries(ctx context.Context, tournamentID int) ([]*models.RoundSummary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	byRound := make(map[int]*models.RoundSummary)
	for _, g := range r.games {
		if g.TournamentID != tournamentID {
			continue
		}
		s, ok := byRound[g.RoundNumber]
		if !ok {
			s = &models.RoundSummary{RoundNumber: g.RoundNumber}
			byRound[g.RoundNumber] = s
		}
		s.TotalGames++
		if g.Result == models.ResultOngoing {
			s.OngoingGames++
		} else {
			s.CompletedGames++
		}
	}
	out := make([]*models.RoundSummary, 0, len(byRound))
	for _, s := range byRound {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RoundNumber < out[j].RoundNumber })
	return out, nil
}

// plannedPair - инструкция фейкового движка: с кем и каким цветом играет
// игрок с данным номером жеребьевки в генерируемом туре.
type plannedPair struct {
	opponent int
	color    byte
}

// fakeRunner подменяет внешний движок: формирует вывод в той же
// фиксированной сетке, подставляя запланированные пары на позицию
// генерируемого тура.
type fakeRunner struct {
	mu sync.Mutex
	// plans[round][pairingNumber]
	plans map[int]map[int]plannedPair
	// rawOutput, если задан, возвращается как есть.
	rawOutput string
	err       error
	calls     int
}

func (f *fakeRunner) Run(ctx context.Context, trfInput string, system models.PairingSystem, tournamentID, roundNumber int) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	if f.rawOutput != "" {
		return f.rawOutput, nil
	}

	plan := f.plans[roundNumber]
	var sb strings.Builder
	sb.WriteString("012 fake\n")
	sb.WriteString(fmt.Sprintf("XXR %d\n", roundNumber-1))
	pairings := make([]int, 0, len(plan))
	for p := range plan {
		pairings = append(pairings, p)
	}
	sort.Ints(pairings)
	for _, p := range pairings {
		pp := plan[p]
		// Блоки предыдущих туров декодеру не нужны, достаточно байев.
		blocks := strings.Repeat("     0 - -", roundNumber-1)
		blocks += fmt.Sprintf("  %4d %c -", pp.opponent, pp.color)
		sb.WriteString(fmt.Sprintf("001 %4d%6s%-33s %4d%36s%5.1f %4d%s\n",
			p, "", fmt.Sprintf("Player %d", p), 1500, "", 0.0, p, blocks))
	}
	return sb.String(), nil
}

// fakeUploader записывает выгруженные объекты в память.
type fakeUploader struct {
	mu        sync.Mutex
	uploads   map[string]string
	uploadErr error
}

func newFakeUploader() *fakeUploader {
	return &fakeUploader{uploads: make(map[string]string)}
}

func (u *fakeUploader) Upload(ctx context.Context, key string, contentType string, reader io.Reader) (*storage.UploadResult, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.uploadErr != nil {
		return nil, u.uploadErr
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, err
	}
	u.uploads[key] = string(data)
	return &storage.UploadResult{Key: key, Location: "https://files.test/" + key}, nil
}

func (u *fakeUploader) Delete(ctx context.Context, key string) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	delete(u.uploads, key)
	return nil
}

func (u *fakeUploader) GetPublicURL(key string) string {
	return "https://files.test/" + key
}
