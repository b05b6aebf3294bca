// Package recommendation asks a text generator for a short strategic
// recommendation about one partner and keeps the results per session.
package recommendation

import (
	"fmt"
	"strconv"
	"strings"

	"partner-insights/internal/models"
)

const (
	DefaultNetworkName = "Rede Valorize + Saúde"
	DefaultCity        = "Uberlândia/MG"
)

// DefaultOffers is the benefit catalogue of the network itself, quoted in the
// prompt as context for the generator.
var DefaultOffers = []string{
	"Seguro de Acidentes",
	"Sorteios",
	"Descontos em Clínicas",
	"Exames",
}

type PromptOptions struct {
	NetworkName string
	City        string
	Offers      []string
}

func (o PromptOptions) withDefaults() PromptOptions {
	if strings.TrimSpace(o.NetworkName) == "" {
		o.NetworkName = DefaultNetworkName
	}
	if strings.TrimSpace(o.City) == "" {
		o.City = DefaultCity
	}
	if len(o.Offers) == 0 {
		o.Offers = DefaultOffers
	}
	return o
}

// BuildPrompt renders the analysis request for p. The reply must be a JSON
// object with exactly the recommendation and strategy fields.
func BuildPrompt(p models.Partner, opts PromptOptions) string {
	opts = opts.withDefaults()

	benefits := "nenhum informado"
	if len(p.Benefits) > 0 {
		benefits = strings.Join(p.Benefits, ", ")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Você é um consultor estratégico sênior da %q.\n", opts.NetworkName)
	b.WriteString("Analise o seguinte parceiro que está performando abaixo do esperado ")
	b.WriteString("(parte dos 80% menos rentáveis) de acordo com o princípio de Pareto.\n\n")

	b.WriteString("Dados do Parceiro:\n")
	fmt.Fprintf(&b, "- Nome: %s\n", p.Name)
	fmt.Fprintf(&b, "- Segmento: %s\n", p.Segment)
	fmt.Fprintf(&b, "- Localização: %s (%s)\n", p.Location, opts.City)
	fmt.Fprintf(&b, "- Pontuação de Uso (0-100): %d\n", p.UsageScore)
	fmt.Fprintf(&b, "- Receita Mensal Gerada: R$ %s\n", strconv.FormatFloat(p.MonthlyRevenue, 'f', 2, 64))
	fmt.Fprintf(&b, "- Benefícios Oferecidos: %s\n\n", benefits)

	fmt.Fprintf(&b, "A rede oferece benefícios como %s.\n\n", strings.Join(opts.Offers, ", "))

	b.WriteString("Forneça uma análise curta e direta em formato JSON com dois campos:\n")
	b.WriteString(`1. "recommendation": Uma ação curta (ex: "Renegociar Descontos", "Campanha de Marketing", "Descontinuar").` + "\n")
	b.WriteString(`2. "strategy": Uma explicação de 2 frases sobre como melhorar a performance ou por que cancelar, `)
	b.WriteString("focado em aumentar o valor para o usuário final.\n\n")
	b.WriteString("Responda APENAS o JSON.")

	return b.String()
}
