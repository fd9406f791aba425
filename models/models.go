package models

// Status de um pregão ao longo do seu ciclo de vida.
type Status string

const (
	StatusPending   Status = "pending"   // agendado, aguardando disputa
	StatusWon       Status = "won"       // vencido integralmente
	StatusPartial   Status = "partial"   // vencido parcialmente
	StatusLost      Status = "lost"      // perdido
	StatusDelivered Status = "delivered" // itens entregues
	StatusPaid      Status = "paid"      // pagamento recebido
)

// Valid reports whether s is one of the known lifecycle statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusWon, StatusPartial, StatusLost, StatusDelivered, StatusPaid:
		return true
	}
	return false
}

// transitions is the directed lifecycle graph. lost and paid are terminal.
var transitions = map[Status][]Status{
	StatusPending:   {StatusWon, StatusPartial, StatusLost},
	StatusWon:       {StatusDelivered},
	StatusPartial:   {StatusDelivered},
	StatusDelivered: {StatusPaid},
}

// CanTransition reports whether moving from one status to another is allowed.
// Writing the current status again is a no-op and therefore allowed.
func CanTransition(from, to Status) bool {
	if from == to {
		return true
	}
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Deadlines agrupa os prazos pós-vitória de um pregão. All fields are
// optional dates; an empty struct serializes as {}.
type Deadlines struct {
	Docs     string `json:"docs,omitempty"`
	Sign     string `json:"sign,omitempty"`
	Delivery string `json:"delivery,omitempty"`
}

// Bid é um pregão acompanhado pelo painel.
type Bid struct {
	ID              string    `json:"id"`
	Orgao           string    `json:"orgao"`
	Cidade          string    `json:"cidade"`
	Plataforma      string    `json:"plataforma"`
	NumeroPregao    string    `json:"numeroPregao"`
	Processo        string    `json:"processo"`
	Data            string    `json:"data"`
	Horario         string    `json:"horario"`
	Modalidade      string    `json:"modalidade"`
	Status          Status    `json:"status"`
	Value           float64   `json:"value"`
	Items           string    `json:"items"`
	Deadlines       Deadlines `json:"deadlines"`
	PaymentDeadline string    `json:"paymentDeadline"`
	IsPaid          bool      `json:"isPaid"`
}

// FileType classifica um documento como nota de entrada ou de saída.
type FileType string

const (
	FileTypeEntry FileType = "entry"
	FileTypeExit  FileType = "exit"
)

func (t FileType) Valid() bool {
	return t == FileTypeEntry || t == FileTypeExit
}

// FileRecord é o registro de um documento enviado. CreatedAt is an RFC3339
// string so lexicographic order matches chronological order.
type FileRecord struct {
	ID           int      `db:"id" json:"id"`
	Filename     string   `db:"filename" json:"filename"`
	OriginalName string   `db:"originalName" json:"originalName"`
	Type         FileType `db:"type" json:"type"`
	CreatedAt    string   `db:"createdAt" json:"createdAt"`
}

// ModalidadeSuggestions são as modalidades sugeridas pelo formulário de
// cadastro. Modalidade continua sendo texto livre.
var ModalidadeSuggestions = []string{
	"Pregão Eletrônico",
	"Pregão Presencial",
	"Dispensa Eletrônica",
	"Chamamento Público",
	"Concorrência",
}

// Stats são os totais exibidos no dashboard.
type Stats struct {
	Total      int     `json:"total"`
	Pending    int     `json:"pending"`
	Won        int     `json:"won"`
	Lost       int     `json:"lost"`
	Receivable float64 `json:"receivable"`
}

// DashboardStats computes the dashboard totals over an in-memory list.
// Won counts every bid past the dispute (won, partial, delivered, paid);
// receivable sums values still awaiting payment (won, partial, delivered).
func DashboardStats(bids []Bid) Stats {
	var s Stats
	s.Total = len(bids)
	for _, b := range bids {
		switch b.Status {
		case StatusPending:
			s.Pending++
		case StatusLost:
			s.Lost++
		case StatusWon, StatusPartial, StatusDelivered:
			s.Won++
			s.Receivable += b.Value
		case StatusPaid:
			s.Won++
		}
	}
	return s
}

// CityGroup é o bloco de pregões de uma cidade nas visões agrupadas.
type CityGroup struct {
	Cidade string `json:"cidade"`
	Bids   []Bid  `json:"bids"`
}

// GroupByCity partitions the bids whose status is in statuses into per-city
// groups. City order follows the first bid seen for each city and bids keep
// their input order inside each group.
func GroupByCity(bids []Bid, statuses ...Status) []CityGroup {
	wanted := make(map[Status]bool, len(statuses))
	for _, st := range statuses {
		wanted[st] = true
	}

	index := make(map[string]int)
	groups := []CityGroup{}
	for _, b := range bids {
		if !wanted[b.Status] {
			continue
		}
		i, ok := index[b.Cidade]
		if !ok {
			i = len(groups)
			index[b.Cidade] = i
			groups = append(groups, CityGroup{Cidade: b.Cidade})
		}
		groups[i].Bids = append(groups[i].Bids, b)
	}
	return groups
}
