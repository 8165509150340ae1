package i18n

import "golang.org/x/text/language"

// MessageKey identifies a localized sentence template.
type MessageKey string

const (
	MsgBackward             MessageKey = "transition.backward"
	MsgSkip                 MessageKey = "transition.skip"
	MsgTerminal             MessageKey = "transition.terminal"
	MsgUnknownStatus        MessageKey = "status.unknown"
	MsgWrongState           MessageKey = "action.wrong_state"
	MsgReportDeliveryFirst  MessageKey = "delivery.report_first"
	MsgRoleNotPermitted     MessageKey = "action.role_not_permitted"
	MsgUnknownAction        MessageKey = "action.unknown"
	MsgUnitPriceIsTotal     MessageKey = "price.unit_is_total"
	MsgNonPositiveUnitPrice MessageKey = "price.non_positive_unit"
	MsgUnitExceedsTotal     MessageKey = "price.unit_exceeds_total"
	MsgMissingPrice         MessageKey = "price.missing"
	MsgPriceLabelPerUnit    MessageKey = "price.label.per_unit"
	MsgPriceLabelTotal      MessageKey = "price.label.total"
	MsgPriceLabelSingle     MessageKey = "price.label.single"
	MsgPaymentOutOfOrder    MessageKey = "payment.out_of_order"
	MsgPaymentMissing       MessageKey = "payment.missing"
	MsgPaymentNotSettled    MessageKey = "payment.not_settled"
	MsgFleetNotSettled      MessageKey = "payment.fleet_not_settled"
	MsgPaymentDisputed      MessageKey = "payment.disputed"
	MsgNoAssignments        MessageKey = "payment.no_assignments"
	MsgAlreadyRated         MessageKey = "rating.already_rated"
	MsgRatingNotCompleted   MessageKey = "rating.not_completed"
	MsgRatingNotParty       MessageKey = "rating.not_party"
	MsgCannotAutoExpire     MessageKey = "service.cannot_auto_expire"
	MsgSafeMode             MessageKey = "safe_mode"
	MsgNotInformed          MessageKey = "value.not_informed"

	MsgForbidden    MessageKey = "request.forbidden"
	MsgNotFound     MessageKey = "request.not_found"
	MsgInvalidInput MessageKey = "request.invalid"
	MsgConflict     MessageKey = "request.conflict"
	MsgInternal     MessageKey = "request.internal"
)

// Dictionary is the full set of display strings for one locale. A Guard
// copies it on construction, so later edits to a Dictionary value never reach
// a running guard.
type Dictionary struct {
	Locale         language.Tag
	Statuses       map[string]string
	Actions        map[string]string
	Roles          map[string]string
	Messages       map[MessageKey]string
	// CurrencySymbol prefixes money; grouping and decimal marks follow Locale.
	CurrencySymbol string
}

// PtBR returns a fresh copy of the Brazilian Portuguese dictionary, the only
// locale the product ships.
func PtBR() Dictionary {
	return Dictionary{
		Locale: language.BrazilianPortuguese,
		Statuses: map[string]string{
			"NEW":                            "Novo",
			"APPROVED":                       "Aprovado",
			"OPEN":                           "Aberto",
			"ACCEPTED":                       "Aceito",
			"LOADING":                        "Carregando",
			"LOADED":                         "Carregado",
			"IN_TRANSIT":                     "Em trânsito",
			"DELIVERED_PENDING_CONFIRMATION": "Entrega aguardando confirmação",
			"DELIVERED":                      "Entregue",
			"COMPLETED":                      "Concluído",
			"CANCELLED":                      "Cancelado",
			"ON_THE_WAY":                     "A caminho",
			"IN_PROGRESS":                    "Em andamento",
			"proposed":                       "Proposto",
			"paid_by_producer":               "Pago pelo produtor",
			"confirmed_by_driver":            "Confirmado pelo motorista",
			"completed":                      "Concluído",
			"rejected":                       "Recusado",
			"cancelled":                      "Cancelado",
			"disputed":                       "Em disputa",
		},
		Actions: map[string]string{
			"APPROVE":          "Aprovar",
			"PUBLISH":          "Publicar",
			"ACCEPT":           "Aceitar",
			"START_LOADING":    "Iniciar carregamento",
			"FINISH_LOADING":   "Finalizar carregamento",
			"START_TRANSIT":    "Iniciar viagem",
			"REPORT_DELIVERY":  "Informar entrega",
			"CONFIRM_DELIVERY": "Confirmar entrega",
			"CREATE_PAYMENT":   "Registrar pagamento",
			"MARK_PAID":        "Marcar como pago",
			"CONFIRM_PAYMENT":  "Confirmar recebimento",
			"COMPLETE":         "Concluir frete",
			"CANCEL":           "Cancelar",
			"RATE":             "Avaliar",
			"DEPART":           "Sair para atendimento",
			"START_SERVICE":    "Iniciar atendimento",
			"FINISH_SERVICE":   "Finalizar atendimento",
		},
		Roles: map[string]string{
			"DRIVER":            "Motorista",
			"AFFILIATED_DRIVER": "Motorista afiliado",
			"CARRIER":           "Transportadora",
			"PRODUCER":          "Produtor",
			"ADMIN":             "Administrador",
			"GUEST":             "Visitante",
		},
		Messages: map[MessageKey]string{
			MsgBackward:             "Não é permitido voltar de \"%s\" para \"%s\".",
			MsgSkip:                 "Não é permitido pular etapas: depois de \"%s\" a próxima etapa é \"%s\".",
			MsgTerminal:             "Registro com status \"%s\" não pode mais ser alterado.",
			MsgUnknownStatus:        "Status não reconhecido: \"%s\".",
			MsgWrongState:           "Esta ação exige o status \"%s\" (status atual: \"%s\").",
			MsgReportDeliveryFirst:  "Informe a entrega primeiro: o frete ainda está \"%s\".",
			MsgRoleNotPermitted:     "%s não pode executar \"%s\" com status \"%s\".",
			MsgUnknownAction:        "Ação não reconhecida: \"%s\".",
			MsgUnitPriceIsTotal:     "O valor por carreta não pode ser igual ao valor total de um frete com %d carretas.",
			MsgNonPositiveUnitPrice: "O valor acordado por carreta deve ser maior que zero.",
			MsgUnitExceedsTotal:     "O valor por carreta (%s) não pode ser maior que o valor total (%s).",
			MsgMissingPrice:         "Dados de preço ausentes para uma operação financeira.",
			MsgPriceLabelPerUnit:    "%s por carreta",
			MsgPriceLabelTotal:      "%s (total de %d carretas)",
			MsgPriceLabelSingle:     "%s",
			MsgPaymentOutOfOrder:    "O pagamento não pode passar de \"%s\" para \"%s\".",
			MsgPaymentMissing:       "Nenhum pagamento foi registrado ainda.",
			MsgPaymentNotSettled:    "O recebimento precisa ser confirmado pelo motorista (pagamento: \"%s\").",
			MsgFleetNotSettled:      "%d de %d carretas ainda não confirmaram o recebimento.",
			MsgPaymentDisputed:      "O pagamento está em disputa e precisa ser resolvido antes do encerramento.",
			MsgNoAssignments:        "Nenhuma carreta foi atribuída a este frete.",
			MsgAlreadyRated:         "Você já avaliou este contrato.",
			MsgRatingNotCompleted:   "A avaliação só é possível após a conclusão (status atual: \"%s\").",
			MsgRatingNotParty:       "%s não participa deste contrato.",
			MsgCannotAutoExpire:     "Solicitações com status \"%s\" não expiram automaticamente.",
			MsgSafeMode:             "Não foi possível validar esta ação. Atualize a página ou fale com o suporte.",
			MsgNotInformed:          "Não informado",
			MsgForbidden:            "Você não tem acesso a este registro.",
			MsgNotFound:             "Registro não encontrado.",
			MsgInvalidInput:         "Dados da requisição inválidos.",
			MsgConflict:             "O registro foi alterado por outra pessoa. Atualize e tente novamente.",
			MsgInternal:             "Erro interno. Tente novamente em instantes.",
		},
		CurrencySymbol: "R$",
	}
}

func cloneStrings(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func cloneMessages(in map[MessageKey]string) map[MessageKey]string {
	out := make(map[MessageKey]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
