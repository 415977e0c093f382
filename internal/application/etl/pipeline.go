package etl

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/yurileveinovacao/projeto-sol-dados-coleta/internal/domain"
	"github.com/yurileveinovacao/projeto-sol-dados-coleta/internal/domain/entity"
	"github.com/yurileveinovacao/projeto-sol-dados-coleta/internal/domain/repository"
	"github.com/yurileveinovacao/projeto-sol-dados-coleta/internal/infrastructure/bling"
	"github.com/yurileveinovacao/projeto-sol-dados-coleta/pkg/config"
	"github.com/yurileveinovacao/projeto-sol-dados-coleta/pkg/logger"
)

// Pipeline orquestra uma execução de extração: determina a janela, renova o
// token, dirige as etapas de NF-e, contatos e produtos na ordem, faz
// checkpoint do progresso e fecha a contabilidade da execução.
//
// A execução é single-thread e síncrona de ponta a ponta. Nada impede duas
// execuções concorrentes; é uma limitação conhecida (candidato: flag de
// "execução em andamento" com single-flight no processo).
type Pipeline struct {
	session  Session
	nfes     repository.NFeRepository
	contatos repository.ContatoRepository
	produtos repository.ProdutoRepository
	runs     repository.ETLRunRepository
	tokens   TokenProvider
	client   ClientFactory
	clock    clockwork.Clock
	cfg      config.ETLConfig
	log      *logger.Logger
}

// PipelineDeps dependências do pipeline.
type PipelineDeps struct {
	Session  Session
	NFes     repository.NFeRepository
	Contatos repository.ContatoRepository
	Produtos repository.ProdutoRepository
	Runs     repository.ETLRunRepository
	Tokens   TokenProvider
	Client   ClientFactory
	Clock    clockwork.Clock
	Config   config.ETLConfig
	Log      *logger.Logger
}

// NewPipeline constrói o pipeline.
func NewPipeline(d PipelineDeps) *Pipeline {
	return &Pipeline{
		session:  d.Session,
		nfes:     d.NFes,
		contatos: d.Contatos,
		produtos: d.Produtos,
		runs:     d.Runs,
		tokens:   d.Tokens,
		client:   d.Client,
		clock:    d.Clock,
		cfg:      d.Config,
		log:      d.Log,
	}
}

// RunResult é o resultado consumido pela superfície de controle.
type RunResult struct {
	Status string          `json:"status"`
	Stats  entity.RunStats `json:"stats"`
	RunID  int64           `json:"run_id"`
}

// Run executa uma extração incremental. Janela: sem data de início explícita,
// usa a data de referência da última execução com sucesso (execuções com erro
// são ignoradas) ou now menos o lookback configurado; fim padrão é now.
func (p *Pipeline) Run(ctx context.Context, dataInicio, dataFim string) (*RunResult, error) {
	now := p.clock.Now().UTC()

	if dataInicio == "" {
		last, err := p.runs.LastSuccessful()
		if err != nil {
			return nil, fmt.Errorf("buscar última execução: %w", err)
		}
		if last != nil {
			dataInicio = last.DataReferencia.Format(dateLayout)
			p.log.Info().Str("data_inicio", dataInicio).Msg("usando data da última execução com sucesso")
		} else {
			dataInicio = now.AddDate(0, 0, -p.cfg.DaysBack).Format(dateLayout)
			p.log.Info().Str("data_inicio", dataInicio).Msg("sem execução anterior, usando lookback padrão")
		}
	}
	if dataFim == "" {
		dataFim = now.Format(dateLayout)
	}
	p.log.Info().Str("inicio", dataInicio).Str("fim", dataFim).Msg("período de extração definido")

	// O registro da execução nasce antes de qualquer I/O de rede.
	runID, err := p.runs.Create(now)
	if err != nil {
		return nil, fmt.Errorf("criar registro da execução: %w", err)
	}

	stats := &entity.RunStats{}
	return p.executar(ctx, runID, stats, func(ctx context.Context, client APIClient) error {
		detalhes, err := p.extrairNFes(ctx, client, dataInicio, dataFim, stats)
		if err != nil {
			return err
		}
		if err := p.extrairContatos(ctx, client, detalhes, stats); err != nil {
			return err
		}
		return p.extrairProdutos(ctx, client, detalhes, stats)
	}), nil
}

// RunFull executa a extração completa de um intervalo de vários meses,
// particionado em subperíodos de mês-calendário, com commit ao fim de cada
// subperíodo e uma única passada de contatos/produtos sobre a união das
// notas coletadas.
func (p *Pipeline) RunFull(ctx context.Context, dataInicio, dataFim string) (*RunResult, error) {
	inicio, err := time.Parse(dateLayout, dataInicio)
	if err != nil {
		return nil, fmt.Errorf("data_inicio inválida: %w", err)
	}
	fim, err := time.Parse(dateLayout, dataFim)
	if err != nil {
		return nil, fmt.Errorf("data_fim inválida: %w", err)
	}

	now := p.clock.Now().UTC()
	runID, err := p.runs.Create(now)
	if err != nil {
		return nil, fmt.Errorf("criar registro da execução: %w", err)
	}

	stats := &entity.RunStats{}
	return p.executar(ctx, runID, stats, func(ctx context.Context, client APIClient) error {
		periodos := PeriodosMensais(inicio, fim)
		p.log.Info().Str("inicio", dataInicio).Str("fim", dataFim).
			Int("periodos", len(periodos)).Msg("extração completa iniciada")

		var todas []*bling.NFeDetalhe
		for i, per := range periodos {
			p.log.Info().Int("periodo", i+1).Int("total", len(periodos)).
				Str("inicio", per.Inicio.Format(dateLayout)).
				Str("fim", per.Fim.Format(dateLayout)).Msg("processando subperíodo")
			detalhes, err := p.extrairNFes(ctx, client,
				per.Inicio.Format(dateLayout), per.Fim.Format(dateLayout), stats)
			if err != nil {
				return err
			}
			todas = append(todas, detalhes...)
			// Commit por subperíodo: falha adiante não desfaz meses já gravados.
			if err := p.session.Checkpoint(ctx); err != nil {
				return err
			}
		}

		if err := p.extrairContatos(ctx, client, todas, stats); err != nil {
			return err
		}
		return p.extrairProdutos(ctx, client, todas, stats)
	}), nil
}

// executar roda as etapas com a disciplina comum: token, cliente com release
// garantido, transação com checkpoints, commit final e bookkeeping terminal
// da execução. Qualquer erro não tratado nas etapas faz rollback do segmento
// corrente e marca a execução como error com os contadores acumulados; o que
// já foi commitado em checkpoints permanece.
func (p *Pipeline) executar(ctx context.Context, runID int64, stats *entity.RunStats, stages func(context.Context, APIClient) error) *RunResult {
	err := func() error {
		token, err := p.tokens.ValidToken(ctx)
		if err != nil {
			return err
		}
		client := p.client(token)
		defer client.Close()

		if err := p.session.Begin(ctx); err != nil {
			return err
		}
		if err := stages(ctx, client); err != nil {
			return err
		}
		return p.session.Commit(ctx)
	}()

	if err != nil {
		if rbErr := p.session.Rollback(ctx); rbErr != nil {
			p.log.Error().Err(rbErr).Msg("rollback falhou")
		}
		msg := describeError(err)
		p.log.Error().Int64("run_id", runID).Str("erro", msg).Msg("pipeline falhou")
		if finErr := p.runs.Finish(runID, entity.RunStatusError, *stats, msg); finErr != nil {
			p.log.Error().Err(finErr).Int64("run_id", runID).Msg("falha ao registrar execução com erro")
		}
		return &RunResult{Status: entity.RunStatusError, Stats: *stats, RunID: runID}
	}

	if finErr := p.runs.Finish(runID, entity.RunStatusSuccess, *stats, ""); finErr != nil {
		p.log.Error().Err(finErr).Int64("run_id", runID).Msg("falha ao registrar execução com sucesso")
	}
	p.log.Info().Int64("run_id", runID).Int("nfes", stats.NFes).
		Int("contatos", stats.Contatos).Int("produtos", stats.Produtos).
		Msg("pipeline concluído com sucesso")
	return &RunResult{Status: entity.RunStatusSuccess, Stats: *stats, RunID: runID}
}

// extrairNFes lista os resumos da janela e busca o detalhe de cada nota.
// Cada nota é processada de forma independente: falha de busca ou payload
// malformado é logada e pulada sem abortar a execução. Erro de persistência
// aborta. A cada CheckpointInterval notas gravadas há um flush de checkpoint;
// notas já commitadas não são desfeitas por falhas posteriores.
func (p *Pipeline) extrairNFes(ctx context.Context, client APIClient, dataInicio, dataFim string, stats *entity.RunStats) ([]*bling.NFeDetalhe, error) {
	p.log.Info().Str("inicio", dataInicio).Str("fim", dataFim).Msg("etapa 1: extração de NF-e")
	resumos, err := client.ListAllNFes(ctx, dataInicio, dataFim)
	if err != nil {
		return nil, err
	}
	p.log.Info().Int("total", len(resumos)).Msg("NF-es encontradas na listagem")

	var detalhados []*bling.NFeDetalhe
	for i, resumo := range resumos {
		det, err := client.GetNFe(ctx, resumo.ID)
		if err != nil {
			p.log.Error().Err(err).Int64("nfe_id", resumo.ID).Msg("erro ao buscar detalhe da NF-e")
			continue
		}
		nfe, itens, pagamentos, err := mapearNFe(resumo, det)
		if err != nil {
			p.log.Error().Err(err).Int64("nfe_id", resumo.ID).Msg("NF-e com payload não normalizável")
			continue
		}
		if err := p.persistirNFe(nfe, itens, pagamentos); err != nil {
			return nil, err
		}
		detalhados = append(detalhados, det)
		stats.NFes++

		if p.cfg.CheckpointInterval > 0 && stats.NFes%p.cfg.CheckpointInterval == 0 {
			if err := p.session.Checkpoint(ctx); err != nil {
				return nil, err
			}
			p.log.Info().Int("nfes", stats.NFes).Msg("checkpoint gravado")
		}
		if (i+1)%100 == 0 {
			p.log.Info().Int("atual", i+1).Int("total", len(resumos)).Msg("progresso NF-e")
		}
	}
	p.log.Info().Int("processadas", stats.NFes).Msg("etapa NF-e concluída")
	return detalhados, nil
}

func (p *Pipeline) persistirNFe(nfe *entity.NFe, itens []entity.NFeItem, pagamentos []entity.NFePagamento) error {
	if err := p.nfes.UpsertCabecalho(nfe); err != nil {
		return err
	}
	if err := p.nfes.ReplaceItens(nfe.ID, itens); err != nil {
		return err
	}
	return p.nfes.ReplacePagamentos(nfe.ID, pagamentos)
}

// extrairContatos computa os ids de contato referenciados pelas notas da
// janela, subtrai os já presentes no banco e busca só os novos. Snapshots
// existentes nunca são reatualizados por esta etapa.
func (p *Pipeline) extrairContatos(ctx context.Context, client APIClient, detalhes []*bling.NFeDetalhe, stats *entity.RunStats) error {
	p.log.Info().Msg("etapa 2: extração de contatos")

	referenciados := make(map[int64]struct{})
	for _, det := range detalhes {
		if id := det.Data.Contato.ID; id != 0 {
			referenciados[id] = struct{}{}
		}
	}
	existentes, err := p.contatos.ExistingIDs()
	if err != nil {
		return err
	}
	novos := make([]int64, 0, len(referenciados))
	for id := range referenciados {
		if _, ok := existentes[id]; !ok {
			novos = append(novos, id)
		}
	}
	p.log.Info().Int("nas_nfes", len(referenciados)).
		Int("existentes", len(referenciados)-len(novos)).
		Int("novos", len(novos)).Msg("contatos a buscar")

	for _, id := range novos {
		det, err := client.GetContato(ctx, id)
		if err != nil {
			p.log.Error().Err(err).Int64("contato_id", id).Msg("erro ao buscar contato")
			continue
		}
		if err := p.contatos.Upsert(mapearContato(id, det)); err != nil {
			return err
		}
		stats.Contatos++
	}
	p.log.Info().Int("novos", stats.Contatos).Msg("etapa contatos concluída")
	return nil
}

// extrairProdutos aplica a mesma política de dedup dos contatos aos códigos
// de produto descobertos nos itens. Produto sem correspondência na API é
// logado e pulado sem falhar a execução.
func (p *Pipeline) extrairProdutos(ctx context.Context, client APIClient, detalhes []*bling.NFeDetalhe, stats *entity.RunStats) error {
	p.log.Info().Msg("etapa 3: extração de produtos")

	referenciados := make(map[string]struct{})
	for _, det := range detalhes {
		for _, it := range det.Data.Itens {
			if it.Codigo != "" {
				referenciados[it.Codigo] = struct{}{}
			}
		}
	}
	existentes, err := p.produtos.ExistingCodigos()
	if err != nil {
		return err
	}
	novos := make([]string, 0, len(referenciados))
	for codigo := range referenciados {
		if _, ok := existentes[codigo]; !ok {
			novos = append(novos, codigo)
		}
	}
	p.log.Info().Int("nas_nfes", len(referenciados)).
		Int("existentes", len(referenciados)-len(novos)).
		Int("novos", len(novos)).Msg("produtos a buscar")

	for _, codigo := range novos {
		produto, err := client.GetProdutoPorCodigo(ctx, codigo)
		if err != nil {
			p.log.Error().Err(err).Str("codigo", codigo).Msg("erro ao buscar produto")
			continue
		}
		if produto == nil {
			p.log.Warn().Str("codigo", codigo).Msg("produto não encontrado na API")
			continue
		}
		if err := p.produtos.Upsert(mapearProduto(codigo, produto)); err != nil {
			return err
		}
		stats.Produtos++
	}
	p.log.Info().Int("novos", stats.Produtos).Msg("etapa produtos concluída")
	return nil
}

// describeError prefixa a mensagem gravada em etl_controle com o nome da
// falha na taxonomia de domínio, para que o histórico diga de cara se foi
// credencial, rate limit ou upstream sem exigir leitura da mensagem.
func describeError(err error) string {
	var upstream *domain.UpstreamError
	var mapErr *domain.MappingError
	switch {
	case errors.Is(err, domain.ErrNoCredential):
		return fmt.Sprintf("ErrNoCredential: %v", err)
	case errors.Is(err, domain.ErrInvalidGrant):
		return fmt.Sprintf("ErrInvalidGrant: %v", err)
	case errors.Is(err, domain.ErrInvalidToken):
		return fmt.Sprintf("ErrInvalidToken: %v", err)
	case errors.Is(err, domain.ErrRateLimitExceeded):
		return fmt.Sprintf("ErrRateLimitExceeded: %v", err)
	case errors.As(err, &upstream):
		return fmt.Sprintf("UpstreamError: %v", err)
	case errors.As(err, &mapErr):
		return fmt.Sprintf("MappingError: %v", err)
	default:
		return fmt.Sprintf("%T: %v", err, err)
	}
}
