package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// schemaDDL é o esquema lógico completo do coletor. Executado no boot com
// CREATE TABLE IF NOT EXISTS; não há tooling de migração versionada.
const schemaDDL = `
CREATE TABLE IF NOT EXISTS oauth_tokens (
    id            INTEGER PRIMARY KEY,
    access_token  TEXT NOT NULL,
    refresh_token TEXT NOT NULL,
    token_type    VARCHAR(50) NOT NULL DEFAULT 'Bearer',
    expires_at    TIMESTAMPTZ NOT NULL,
    updated_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS nfe_cabecalho (
    id                BIGINT PRIMARY KEY,
    numero            VARCHAR(50),
    data_emissao      TIMESTAMPTZ,
    situacao          INTEGER,
    contato_id        BIGINT,
    contato_nome      VARCHAR(500),
    contato_documento VARCHAR(20),
    contato_municipio VARCHAR(200),
    contato_uf        VARCHAR(2),
    total_produtos    NUMERIC(14,2) NOT NULL DEFAULT 0,
    total_nota        NUMERIC(14,2) NOT NULL DEFAULT 0,
    total_descontos   NUMERIC(14,2) NOT NULL DEFAULT 0,
    extraido_em       TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS ix_nfe_cabecalho_numero ON nfe_cabecalho (numero);
CREATE INDEX IF NOT EXISTS ix_nfe_cabecalho_data_emissao ON nfe_cabecalho (data_emissao);
CREATE INDEX IF NOT EXISTS ix_nfe_cabecalho_contato_id ON nfe_cabecalho (contato_id);
CREATE INDEX IF NOT EXISTS ix_nfe_cabecalho_contato_documento ON nfe_cabecalho (contato_documento);

CREATE TABLE IF NOT EXISTS nfe_itens (
    id                BIGSERIAL PRIMARY KEY,
    nfe_id            BIGINT NOT NULL REFERENCES nfe_cabecalho (id),
    codigo_produto    VARCHAR(100),
    descricao_produto VARCHAR(500),
    quantidade        NUMERIC(14,4) NOT NULL DEFAULT 0,
    valor_unitario    NUMERIC(14,4) NOT NULL DEFAULT 0,
    valor_total       NUMERIC(14,2) NOT NULL DEFAULT 0,
    valor_desconto    NUMERIC(14,2) NOT NULL DEFAULT 0,
    unidade_medida    VARCHAR(20),
    CONSTRAINT uq_nfe_item UNIQUE (nfe_id, codigo_produto)
);
CREATE INDEX IF NOT EXISTS ix_nfe_itens_codigo_produto ON nfe_itens (codigo_produto);

CREATE TABLE IF NOT EXISTS nfe_pagamentos (
    id             BIGSERIAL PRIMARY KEY,
    nfe_id         BIGINT NOT NULL REFERENCES nfe_cabecalho (id),
    tipo_pagamento INTEGER,
    valor          NUMERIC(14,2) NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS ix_nfe_pagamentos_nfe_id ON nfe_pagamentos (nfe_id);

CREATE TABLE IF NOT EXISTS contatos (
    id          BIGINT PRIMARY KEY,
    nome        VARCHAR(500),
    documento   VARCHAR(20),
    email       VARCHAR(500),
    tipo_pessoa VARCHAR(1),
    municipio   VARCHAR(200),
    uf          VARCHAR(2),
    extraido_em TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS ix_contatos_documento ON contatos (documento);

CREATE TABLE IF NOT EXISTS produtos (
    id                  BIGINT PRIMARY KEY,
    codigo              VARCHAR(100) UNIQUE,
    nome                VARCHAR(500),
    preco_venda         NUMERIC(14,2) NOT NULL DEFAULT 0,
    preco_custo         NUMERIC(14,2) NOT NULL DEFAULT 0,
    categoria_id        BIGINT,
    categoria_descricao VARCHAR(300),
    extraido_em         TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS etl_controle (
    id               BIGSERIAL PRIMARY KEY,
    inicio           TIMESTAMPTZ NOT NULL,
    fim              TIMESTAMPTZ,
    status           VARCHAR(20) NOT NULL DEFAULT 'running',
    data_referencia  DATE,
    nfes_processadas INTEGER NOT NULL DEFAULT 0,
    contatos_novos   INTEGER NOT NULL DEFAULT 0,
    produtos_novos   INTEGER NOT NULL DEFAULT 0,
    erro_mensagem    TEXT,
    created_at       TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS ix_etl_controle_status ON etl_controle (status);
CREATE INDEX IF NOT EXISTS ix_etl_controle_data_ref ON etl_controle (data_referencia);
`

// EnsureSchema cria as tabelas do coletor se ainda não existem.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, schemaDDL); err != nil {
		return fmt.Errorf("criar schema: %w", err)
	}
	return nil
}
