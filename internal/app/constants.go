package app

import "bridgebid/internal/domain"

// MinPlayersToStartGame defines the number of occupied seats required to deal a board.
const MinPlayersToStartGame = domain.NumSeats
