// Package trf serializes tournament state into the fixed-width
// tournament-report format consumed by the external pairing engine, and
// parses the engine's output back into pairings.
//
// Player line layout (byte offsets, zero-based):
//
//	0   "001 "
//	4   pairing number, 4 right-justified
//	8   6 spaces
//	14  player name, 33 left-justified
//	47  space
//	48  rating, 4 right-justified
//	52  36 spaces
//	88  score, 5 chars "%.1f" right-justified
//	93  space
//	94  rank (= pairing number), 4 right-justified
//	98  per-round result blocks, 10 bytes each
//
// Each round block is "  NNNN c r": opponent pairing number (4), color
// 'w'/'b', result code '1'/'0'/'='/'+'/'-'. A round without a game is the
// bye pattern "     0 - -".
package trf

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/volkovda/chess-arena/models"
)

const (
	playerLinePrefix = "001 "
	headerLinePrefix = "012 "
	roundCountPrefix = "XXR "

	nameWidth = 33

	// Смещения строки игрока. Блоки туров начинаются сразу после ранга.
	pairingNumberStart = 4
	pairingNumberEnd   = 8
	roundBlocksStart   = 98
	roundBlockWidth    = 10

	// Внутри блока тура.
	blockOpponentStart = 2
	blockOpponentEnd   = 6
	blockColorOffset   = 7
	blockResultOffset  = 9
)

var ErrPairingNumberMissing = errors.New("registration has no pairing number assigned")

// byeBlock - тур без партии: соперник 0, цвет '-', результат '-'.
const byeBlock = "     0 - -"

// Encode serializes the roster and the game history through targetRound-1.
// Registrations must be ordered by pairing number ascending, and every
// registration must already carry a pairing number.
func Encode(tournamentName string, registrations []*models.Registration, games []*models.Game, targetRound int) (string, error) {
	var sb strings.Builder

	name := tournamentName
	if len(name) > 84 {
		name = name[:84]
	}
	sb.WriteString(headerLinePrefix)
	sb.WriteString(fmt.Sprintf("%-84s", name))
	sb.WriteString(fmt.Sprintf("%-10s", time.Now().Format("20060102")))
	sb.WriteByte('\n')

	playedRounds := targetRound - 1
	if playedRounds < 0 {
		playedRounds = 0
	}
	sb.WriteString(fmt.Sprintf("%s%d\n", roundCountPrefix, playedRounds))

	pairingByReg := make(map[int]int, len(registrations))
	for _, reg := range registrations {
		if reg.PairingNumber == nil {
			return "", fmt.Errorf("%w: registration %d", ErrPairingNumberMissing, reg.ID)
		}
		pairingByReg[reg.ID] = *reg.PairingNumber
	}

	// Партии, сгруппированные по id регистрации и туру.
	gamesByPlayer := make(map[int]map[int]*models.Game)
	for _, g := range games {
		if g.RoundNumber >= targetRound {
			continue
		}
		for _, regID := range []int{g.WhiteRegistrationID, g.BlackRegistrationID} {
			if gamesByPlayer[regID] == nil {
				gamesByPlayer[regID] = make(map[int]*models.Game)
			}
			gamesByPlayer[regID][g.RoundNumber] = g
		}
	}

	for _, reg := range registrations {
		line, err := encodePlayerLine(reg, gamesByPlayer[reg.ID], pairingByReg, playedRounds)
		if err != nil {
			return "", err
		}
		sb.WriteString(line)
		sb.WriteByte('\n')
	}

	return sb.String(), nil
}

func encodePlayerLine(reg *models.Registration, rounds map[int]*models.Game, pairingByReg map[int]int, playedRounds int) (string, error) {
	var blocks strings.Builder
	score := 0.0

	for round := 1; round <= playedRounds; round++ {
		game, ok := rounds[round]
		if !ok || game.Result == models.ResultOngoing {
			// Незавершенная партия прошлого тура кодируется как несыгранная.
			blocks.WriteString(byeBlock)
			continue
		}

		opponent, color, code, err := perspectiveOf(reg.ID, game, pairingByReg)
		if err != nil {
			return "", err
		}
		score += pointsFor(code)
		blocks.WriteString(fmt.Sprintf("  %4d %c %c", opponent, color, code))
	}

	playerName := reg.PlayerName
	if len(playerName) > nameWidth {
		playerName = playerName[:nameWidth]
	}

	line := fmt.Sprintf("%s%4d%6s%-33s %4d%36s%5.1f %4d%s",
		playerLinePrefix,
		*reg.PairingNumber,
		"",
		playerName,
		reg.Rating,
		"",
		score,
		*reg.PairingNumber,
		blocks.String(),
	)
	return line, nil
}

// perspectiveOf возвращает номер соперника, цвет и код результата
// с точки зрения игрока regID.
func perspectiveOf(regID int, game *models.Game, pairingByReg map[int]int) (opponent int, color byte, code byte, err error) {
	white := game.WhiteRegistrationID == regID

	var opponentRegID int
	if white {
		opponentRegID = game.BlackRegistrationID
		color = 'w'
	} else {
		opponentRegID = game.WhiteRegistrationID
		color = 'b'
	}
	opponent, ok := pairingByReg[opponentRegID]
	if !ok {
		// Соперник выбыл из ростера (withdrawn): номер неизвестен,
		// но результат игрока сохраняется.
		opponent = 0
	}

	switch game.Result {
	case models.ResultWhiteWin:
		code = resultCode(white, '1', '0')
	case models.ResultBlackWin:
		code = resultCode(!white, '1', '0')
	case models.ResultDraw:
		code = '='
	case models.ResultForfeitWhite:
		// forfeit_white: белым присуждена победа без игры.
		code = resultCode(white, '+', '-')
	case models.ResultForfeitBlack:
		code = resultCode(!white, '+', '-')
	default:
		return 0, 0, 0, fmt.Errorf("unknown game result %q for game %d", game.Result, game.ID)
	}
	return opponent, color, code, nil
}

func resultCode(won bool, winCode, lossCode byte) byte {
	if won {
		return winCode
	}
	return lossCode
}

// pointsFor: победа и выигрыш без игры - 1, ничья - 0.5, остальное - 0.
func pointsFor(code byte) float64 {
	switch code {
	case '1', '+':
		return 1
	case '=':
		return 0.5
	}
	return 0
}
