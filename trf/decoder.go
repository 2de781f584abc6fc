package trf

import (
	"sort"
	"strconv"
	"strings"
)

// Pairing is one board of the newly generated round, expressed in pairing
// numbers. Resolution to registration ids is the round service's job.
type Pairing struct {
	WhitePairingNumber int
	BlackPairingNumber int
	BoardNumber        int
}

type opponentEntry struct {
	opponent int
	color    byte
}

// DecodeRoundPairings извлекает пары нового тура из TRF-вывода движка.
// Движок возвращает тот же формат, что получил на вход, с парами нового
// тура внутри блока результатов на позиции targetRound.
//
// Malformed or short lines are skipped; the caller decides whether zero
// pairings for a non-empty roster is an error.
func DecodeRoundPairings(engineOutput string, targetRound int) []Pairing {
	if targetRound < 1 {
		return nil
	}

	blockStart := roundBlocksStart + (targetRound-1)*roundBlockWidth
	blockEnd := blockStart + roundBlockWidth

	byPlayer := make(map[int]opponentEntry)

	for _, line := range strings.Split(engineOutput, "\n") {
		if !strings.HasPrefix(line, playerLinePrefix) {
			continue
		}
		// Каждое чтение по смещению защищено проверкой длины.
		if len(line) < blockEnd {
			continue
		}

		pairingNo, err := strconv.Atoi(strings.TrimSpace(line[pairingNumberStart:pairingNumberEnd]))
		if err != nil || pairingNo <= 0 {
			continue
		}

		block := line[blockStart:blockEnd]
		opponent, err := strconv.Atoi(strings.TrimSpace(block[blockOpponentStart:blockOpponentEnd]))
		if err != nil {
			continue
		}
		color := block[blockColorOffset]

		byPlayer[pairingNo] = opponentEntry{opponent: opponent, color: color}
	}

	// Обход по возрастанию номера дает стабильные номера досок.
	players := make([]int, 0, len(byPlayer))
	for p := range byPlayer {
		players = append(players, p)
	}
	sort.Ints(players)

	consumed := make(map[int]bool, len(players))
	pairings := make([]Pairing, 0, len(players)/2)

	for _, player := range players {
		entry := byPlayer[player]
		// Повторное упоминание уже спаренного игрока - испорченная строка,
		// пропускаем: каждый игрок попадает максимум в одну пару.
		if consumed[player] || consumed[entry.opponent] {
			continue
		}
		if entry.opponent == 0 {
			// Бай: игрок без соперника в этом туре, партия не создается.
			continue
		}

		var white, black int
		switch entry.color {
		case 'w', 'W':
			white, black = player, entry.opponent
		case 'b', 'B':
			white, black = entry.opponent, player
		default:
			continue
		}

		consumed[player] = true
		consumed[entry.opponent] = true
		pairings = append(pairings, Pairing{
			WhitePairingNumber: white,
			BlackPairingNumber: black,
			BoardNumber:        len(pairings) + 1,
		})
	}

	return pairings
}
