package config

type TicketsConfig interface {
	GetTicketAPIBaseURL() string
}

type Tickets struct {
	baseURL string
}

var _ TicketsConfig = Tickets{}

func loadTickets() Tickets {
	return Tickets{
		baseURL: GetEnv("TICKET_API_BASE_URL", "https://api.atlassian.com/ex/jira"),
	}
}

func (t Tickets) GetTicketAPIBaseURL() string {
	return t.baseURL
}
