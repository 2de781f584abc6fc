package services

import "sync"

// tournamentLocks сериализует генерацию и удаление туров в рамках одного
// турнира. Разные турниры обрабатываются параллельно.
type tournamentLocks struct {
	mu    sync.Mutex
	locks map[int]*sync.Mutex
}

func newTournamentLocks() *tournamentLocks {
	return &tournamentLocks{locks: make(map[int]*sync.Mutex)}
}

// forTournament returns the mutex for a tournament, creating it on first use.
// Entries are never evicted: the set of active tournaments is small.
func (l *tournamentLocks) forTournament(tournamentID int) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()
	m, ok := l.locks[tournamentID]
	if !ok {
		m = &sync.Mutex{}
		l.locks[tournamentID] = m
	}
	return m
}
