package game

import (
	"github.com/gridduel/gridduel-backend/internal/entity"
)

// CalculateColumnScores sums each player's placed-card powers per column and
// picks the column winners. A column with equal sums, including 0-0, is a
// tie with no winner recorded.
func CalculateColumnScores(game *entity.Game, players map[string]*entity.Player) map[int]*entity.ColumnScore {
	columnScores := make(map[int]*entity.ColumnScore, game.Board.Width)

	for col := 0; col < game.Board.Width; col++ {
		colScore := &entity.ColumnScore{PlayerScores: make(map[string]int, len(game.PlayerIDs))}
		for _, playerID := range game.PlayerIDs {
			colScore.PlayerScores[playerID] = 0
		}
		columnScores[col] = colScore
	}

	for _, playerID := range game.PlayerIDs {
		player, ok := players[playerID]
		if !ok {
			continue
		}

		for key, card := range player.PlacedCards {
			pos, err := entity.ParsePosition(key)
			if err != nil {
				continue
			}

			if colScore, ok := columnScores[pos.X]; ok {
				colScore.PlayerScores[playerID] += card.Power
			}
		}
	}

	for _, colScore := range columnScores {
		determineColumnWinner(colScore)
	}

	return columnScores
}

func determineColumnWinner(colScore *entity.ColumnScore) {
	highest := -1
	winnerID := ""
	contenders := 0

	for playerID, score := range colScore.PlayerScores {
		switch {
		case score > highest:
			highest = score
			winnerID = playerID
			contenders = 1
		case score == highest:
			contenders++
		}
	}

	// An empty column (or one holding only power-0 cards) is always a tie.
	tie := contenders > 1 || highest == 0

	if tie {
		colScore.WinnerID = ""
		colScore.Tie = true
		return
	}

	colScore.WinnerID = winnerID
	colScore.Tie = false
}

// DetermineWinner counts column victories and returns the match winner, or
// "" on an equal column-win count. It also returns the per-player column-win
// tally, which becomes the final score map.
func DetermineWinner(game *entity.Game, players map[string]*entity.Player) (string, map[string]int) {
	columnScores := CalculateColumnScores(game, players)

	columnsWon := make(map[string]int, len(game.PlayerIDs))
	for _, playerID := range game.PlayerIDs {
		columnsWon[playerID] = 0
	}

	for _, colScore := range columnScores {
		if colScore.WinnerID != "" && !colScore.Tie {
			columnsWon[colScore.WinnerID]++
		}
	}

	most := -1
	winnerID := ""
	tie := false

	for playerID, won := range columnsWon {
		switch {
		case won > most:
			most = won
			winnerID = playerID
			tie = false
		case won == most:
			tie = true
		}
	}

	if tie {
		return "", columnsWon
	}

	return winnerID, columnsWon
}
