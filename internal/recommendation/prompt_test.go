package recommendation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func containsAll(s string, parts ...string) bool {
	for _, p := range parts {
		if !strings.Contains(s, p) {
			return false
		}
	}
	return true
}

func TestBuildPrompt(t *testing.T) {
	p := testPartner()

	prompt := BuildPrompt(p, PromptOptions{})

	for _, want := range []string{
		`"Rede Valorize + Saúde"`,
		"- Nome: Ótica Central",
		"- Segmento: SAÚDE",
		"- Localização: Centro (Uberlândia/MG)",
		"- Pontuação de Uso (0-100): 35",
		"- Receita Mensal Gerada: R$ 420.50",
		"- Benefícios Oferecidos: 20% em armações, Exame de vista grátis",
		"Seguro de Acidentes, Sorteios, Descontos em Clínicas, Exames",
		`"recommendation"`,
		`"strategy"`,
		"Responda APENAS o JSON.",
	} {
		assert.Contains(t, prompt, want)
	}
}

func TestBuildPrompt_Options(t *testing.T) {
	p := testPartner()
	p.Benefits = nil

	prompt := BuildPrompt(p, PromptOptions{
		NetworkName: "Clube Benefícios",
		City:        "Araguari/MG",
		Offers:      []string{"Cashback"},
	})

	assert.Contains(t, prompt, `"Clube Benefícios"`)
	assert.Contains(t, prompt, "Centro (Araguari/MG)")
	assert.Contains(t, prompt, "como Cashback.")
	assert.Contains(t, prompt, "Benefícios Oferecidos: nenhum informado")
	assert.NotContains(t, prompt, "Uberlândia")
}
