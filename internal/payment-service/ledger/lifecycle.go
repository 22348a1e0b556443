package ledger

import "fmt"

// transições permitidas por tipo de requisição; estados ausentes do mapa são terminais
var transitions = map[RequestKind]map[RequestStatus][]RequestStatus{
	KindDeposit: {
		StatusPending: {StatusApproved, StatusRejected},
	},
	KindWithdrawal: {
		StatusPending:  {StatusApproved, StatusRejected, StatusCancelled},
		StatusApproved: {StatusPaid},
	},
}

func CanTransition(kind RequestKind, from, to RequestStatus) bool {
	for _, next := range transitions[kind][from] {
		if next == to {
			return true
		}
	}
	return false
}

func IsTerminal(kind RequestKind, s RequestStatus) bool {
	return len(transitions[kind][s]) == 0
}

// Transition valida a mudança de estado e devolve InvalidState quando proibida
func Transition(kind RequestKind, from, to RequestStatus) error {
	if CanTransition(kind, from, to) {
		return nil
	}
	if from == StatusPending {
		return InvalidState(fmt.Sprintf("%s request cannot move from %s to %s", kind, from, to))
	}
	return InvalidState(fmt.Sprintf("%s request is already %s", kind, from))
}

// ParseStatus normaliza o filtro de status (comparação case-insensitive)
func ParseStatus(kind RequestKind, raw string) (RequestStatus, bool) {
	s := RequestStatus(toLowerASCII(raw))
	switch s {
	case StatusPending, StatusApproved, StatusRejected:
		return s, true
	case StatusPaid, StatusCancelled:
		return s, kind == KindWithdrawal
	}
	return "", false
}

func toLowerASCII(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}
