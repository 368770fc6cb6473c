package models

// StagedTrip is one parsed row of a Cube_AnzahlGefahreneKmJeTag export.
type StagedTrip struct {
	InternalUser string
	TripDate     string
	Kilometers   float64
}

// StagedUsername is one parsed row of a Cube_MdRzA_Login export.
type StagedUsername struct {
	InternalUser   string
	PortalUsername string
}

// StagedPassword is one parsed row of a Cube_MdRzA_Kennwort export.
type StagedPassword struct {
	InternalUser      string
	EncryptedPassword string
}
