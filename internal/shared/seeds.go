package shared

import "bar_radar/internal/domain"

// SeedAreas are the grid cells cmd/fetcher warms up: central cells of
// the covered metropolitan region. One entry per ~111m cache cell.
var SeedAreas = []domain.Coords{
	{Latitude: 51.545, Longitude: -0.055}, // Hackney Central
	{Latitude: 51.549, Longitude: -0.078}, // Dalston
	{Latitude: 51.536, Longitude: -0.062}, // London Fields
	{Latitude: 51.532, Longitude: -0.055}, // Broadway Market
	{Latitude: 51.526, Longitude: -0.077}, // Hoxton
	{Latitude: 51.524, Longitude: -0.071}, // Shoreditch
	{Latitude: 51.557, Longitude: -0.075}, // Stoke Newington
}
