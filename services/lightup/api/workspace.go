package api

type Workspace struct {
	UUID string `json:"uuid"`
	Name string `json:"name"`
}

type ListWorkspacesResponse struct {
	Data []Workspace `json:"data"`
}
