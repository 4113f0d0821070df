package schemas

// MetadataDTO is a struct that represents the API metadata response
type MetadataDTO struct {
	ApiVersion  string `json:"apiVersion"`
	ApiName     string `json:"apiName"`
	PullRequest string `json:"pullRequest,omitempty"`
}

// TokenPairDTO is a struct that represents a token response
// AccessToken is the short lived JWT used for auth
// RefreshToken is the long lived JWT used to get a new access token
type TokenPairDTO struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// DiagramDTO wraps a single diagram in service responses
type DiagramDTO struct {
	Diagram *Diagram `json:"diagram"`
}

type MostVisitedAPIDTO struct {
	MostVisitedAPIs []VisitedAPI `json:"mostVisitedApis"`
}

type MostVisitedUserDTO struct {
	MostVisitedUsers []VisitedUser `json:"mostVisitedUsers"`
}

// CountDTO reports how many documents an operation touched
type CountDTO struct {
	Count int64 `json:"count"`
}
