package i18n

var ptBRCatalog = &Catalog{
	locale: "pt-BR",
	messages: map[Code]string{
		CodeUnknown:    "Ocorreu um erro inesperado",
		CodeBadRequest: "Não foi possível interpretar o corpo da requisição",

		// Account errors
		CodeActorIDEmpty:      "O identificador do ator não pode ser vazio",
		CodeAmountNotPositive: "O valor deve ser maior que zero",
		CodeBalanceOutOfRange: "O saldo deve estar entre 0 e {{.Max}}",
		CodeBalanceExceedsCap: "O saldo excederia o máximo de {{.Max}}",
		CodeInsufficientFunds: "Saldo insuficiente: necessário {{.Required}}, disponível {{.Balance}}",
		CodeSelfTransfer:      "Os atores de origem e destino devem ser diferentes",
		CodeAccountNotCached:  "A conta {{.ActorID}} não está carregada",

		// Loan errors
		CodeLoanOutstanding:     "Já existe um empréstimo ativo para este ator",
		CodeLoanAlreadyPaid:     "O empréstimo já foi quitado",
		CodeLoanNotFound:        "Nenhum empréstimo ativo encontrado para este ator",
		CodeLoanTooLarge:        "O principal do empréstimo não pode exceder {{.Max}}",
		CodeLoanDurationInvalid: "A duração do empréstimo deve estar entre 1 e 365 dias",

		// Shop errors
		CodeItemNameEmpty:        "O nome do item não pode ser vazio",
		CodeItemPriceNotPositive: "O preço do item deve ser maior que zero",
		CodeItemNotFound:         "O item {{.Name}} não foi encontrado",
		CodeQuantityNotPositive:  "A quantidade deve ser pelo menos 1",

		// Settings errors
		CodeRateOutOfRange:  "A taxa {{.Rate}} está fora do intervalo permitido",
		CodeSettingsInvalid: "As configurações da economia são inválidas: {{.Reason}}",

		// Storage errors
		CodeNotFound:         "O recurso solicitado não foi encontrado",
		CodeStoreUnavailable: "O armazenamento do livro-razão está temporariamente indisponível",
	},
}
