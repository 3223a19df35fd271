package models

import "strings"

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "Pending"
	OrderStatusPaid      OrderStatus = "Paid"
	OrderStatusShipped   OrderStatus = "Shipped"
	OrderStatusCompleted OrderStatus = "Completed"
	OrderStatusCancelled OrderStatus = "Cancelled"
)

var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending: {OrderStatusPaid, OrderStatusCancelled},
	OrderStatusPaid:    {OrderStatusShipped},
	OrderStatusShipped: {OrderStatusCompleted},
}

// PaidStatuses retourne les statuts comptés comme chiffre d'affaires réalisé
func PaidStatuses() []OrderStatus {
	return []OrderStatus{OrderStatusPaid, OrderStatusShipped, OrderStatusCompleted}
}

func (s OrderStatus) IsPaid() bool {
	switch s {
	case OrderStatusPaid, OrderStatusShipped, OrderStatusCompleted:
		return true
	}
	return false
}

func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusCompleted || s == OrderStatusCancelled
}

func (s OrderStatus) IsValid() bool {
	switch s {
	case OrderStatusPending, OrderStatusPaid, OrderStatusShipped, OrderStatusCompleted, OrderStatusCancelled:
		return true
	}
	return false
}

// CanTransitionTo applique la machine à états : aucune transition n'est réversible
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, allowed := range orderTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

func (s OrderStatus) String() string {
	return string(s)
}

// ParseOrderStatus accepte le nom du statut sans tenir compte de la casse.
func ParseOrderStatus(raw string) (OrderStatus, bool) {
	for _, s := range []OrderStatus{OrderStatusPending, OrderStatusPaid, OrderStatusShipped, OrderStatusCompleted, OrderStatusCancelled} {
		if strings.EqualFold(raw, string(s)) {
			return s, true
		}
	}
	return "", false
}
