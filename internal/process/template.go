package process

// stepTemplates holds the default timeline per process type, used when a
// case is opened without an explicit list of steps. Types without a
// template fall back to the generic regularization flow.
var stepTemplates = map[string][]CreateStepDTO{
	"usucapiao": {
		{Title: "Análise documental"},
		{Title: "Laudo de posse"},
		{Title: "Entrada no cartório"},
		{Title: "Registro final"},
	},
	"inventario": {
		{Title: "Levantamento de herdeiros"},
		{Title: "Análise documental"},
		{Title: "Partilha e escritura"},
		{Title: "Registro final"},
	},
	"retificacao": {
		{Title: "Análise da matrícula"},
		{Title: "Levantamento topográfico"},
		{Title: "Entrada no cartório"},
	},
}

var genericSteps = []CreateStepDTO{
	{Title: "Análise documental"},
	{Title: "Entrada no cartório"},
	{Title: "Registro final"},
}

// TemplateSteps returns the default timeline for a process type.
func TemplateSteps(processType string) []CreateStepDTO {
	if steps, ok := stepTemplates[processType]; ok {
		return steps
	}
	return genericSteps
}
