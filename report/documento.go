package report

import (
	"context"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/psweb/psweb/internal/ps"
)

// Gerador builds the PDF of a PS and stores it under docsDir. It satisfies the
// document collaborator of the PS service.
type Gerador struct {
	client  *Client
	docsDir string
}

// NewGerador constructs a Gerador writing into docsDir.
func NewGerador(client *Client, docsDir string) *Gerador {
	return &Gerador{client: client, docsDir: docsDir}
}

var documentoTmpl = template.Must(template.New("ps").Parse(`<!DOCTYPE html>
<html lang="pt-BR">
<head>
<meta charset="utf-8">
<title>Passagem de Serviço {{.Rotulo}}</title>
<style>
body { font-family: sans-serif; margin: 2.5cm; color: #1a1a1a; }
h1 { font-size: 18pt; border-bottom: 2px solid #1a1a1a; padding-bottom: 6px; }
table.meta { width: 100%; margin: 16px 0; border-collapse: collapse; }
table.meta td { padding: 4px 8px; border: 1px solid #999; }
h2 { font-size: 13pt; margin-top: 24px; }
pre { font-family: inherit; white-space: pre-wrap; }
</style>
</head>
<body>
<h1>Passagem de Serviço {{.Rotulo}}</h1>
<table class="meta">
<tr><td>Embarcação</td><td>{{.Embarcacao}}</td></tr>
<tr><td>Período</td><td>{{.PeriodoInicio}} a {{.PeriodoFim}}</td></tr>
<tr><td>Data de emissão</td><td>{{.DataEmissao}}</td></tr>
<tr><td>Fiscal desembarcando</td><td>{{.FiscalDesembarcando}}</td></tr>
<tr><td>Fiscal embarcando</td><td>{{.FiscalEmbarcando}}</td></tr>
</table>
<h2>Atividades realizadas</h2>
<pre>{{.Atividades}}</pre>
<h2>Pendências</h2>
<pre>{{.Pendencias}}</pre>
<h2>Observações</h2>
<pre>{{.Observacoes}}</pre>
</body>
</html>`))

type documentoDados struct {
	Rotulo              string
	Embarcacao          string
	PeriodoInicio       string
	PeriodoFim          string
	DataEmissao         string
	FiscalDesembarcando string
	FiscalEmbarcando    string
	Atividades          string
	Pendencias          string
	Observacoes         string
}

// Gerar renders the handover document and writes it to disk, returning the
// path relative to docsDir. The file is written atomically via a temp file so
// a partial write never becomes the stored document.
func (g *Gerador) Gerar(ctx context.Context, det ps.Detalhe) (string, error) {
	var html strings.Builder
	err := documentoTmpl.Execute(&html, documentoDados{
		Rotulo:              det.Rotulo(),
		Embarcacao:          det.EmbarcacaoNome,
		PeriodoInicio:       det.PeriodoInicio.Format("02/01/2006"),
		PeriodoFim:          det.PeriodoFim.Format("02/01/2006"),
		DataEmissao:         det.DataEmissao.Format("02/01/2006"),
		FiscalDesembarcando: det.FiscalDesembarcandoNome,
		FiscalEmbarcando:    det.FiscalEmbarcandoNome,
		Atividades:          det.Atividades,
		Pendencias:          det.Pendencias,
		Observacoes:         det.Observacoes,
	})
	if err != nil {
		return "", fmt.Errorf("report: render template: %w", err)
	}

	pdf, err := g.client.RenderHTML(ctx, html.String())
	if err != nil {
		return "", fmt.Errorf("%w: %v", ps.ErrDependencyFailure, err)
	}

	nome := fmt.Sprintf("ps_%d_%s_%d.pdf", det.ID, strings.ReplaceAll(det.Rotulo(), "/", "-"), time.Now().UnixMilli())
	if err := os.MkdirAll(g.docsDir, 0o755); err != nil {
		return "", fmt.Errorf("report: create docs dir: %w", err)
	}
	tmp, err := os.CreateTemp(g.docsDir, "ps_*.tmp")
	if err != nil {
		return "", fmt.Errorf("report: create temp file: %w", err)
	}
	defer func() {
		_ = os.Remove(tmp.Name())
	}()
	if _, err := tmp.Write(pdf); err != nil {
		_ = tmp.Close()
		return "", fmt.Errorf("report: write document: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("report: close document: %w", err)
	}
	if err := os.Rename(tmp.Name(), filepath.Join(g.docsDir, nome)); err != nil {
		return "", fmt.Errorf("report: store document: %w", err)
	}
	return nome, nil
}
