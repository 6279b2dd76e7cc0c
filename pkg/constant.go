package pkg

const (
	INF_WEIGHT float64 = 1e15

	// planar bounds accepted for manual room-center overrides (svg units, with padding)
	MIN_PLANAR_COORD = -1000.0
	MAX_PLANAR_COORD = 2000.0

	DISTANCE_UNIT = "meters"

	// inverse transform grid search
	INVERSE_GRID_STEP          = 0.01
	INVERSE_REFINEMENT_ROUNDS  = 4
	INVERSE_DEGENERATE_EPSILON = 1e-12
	PLANAR_PRECISION           = 2

	// nearest corridor fallback search radius in km
	CORRIDOR_SEARCH_RADIUS     = 0.01
	CORRIDOR_MAX_SEARCH_RADIUS = 0.5
	CORRIDOR_BOX_PADDING       = 0.002

	DEFAULT_ROUTE_CACHE_SIZE = 1 << 12
)
