package models

import "time"

// CatalogClient é a identidade canônica de um ponto de venda no catálogo de
// retiradas. O código é imutável depois de atribuído; registros nunca são
// apagados, apenas atualizados a cada novo upload.
type CatalogClient struct {
	ID                     int       `json:"id" gorm:"primaryKey"`
	ClientCode             string    `json:"client_code" gorm:"type:varchar(64);uniqueIndex;not null"`
	NomeFantasia           string    `json:"nome_fantasia" gorm:"type:varchar(255);default:''"`
	RazaoSocial            string    `json:"razao_social" gorm:"type:varchar(255);default:''"`
	CnpjCpf                string    `json:"cnpj_cpf" gorm:"type:varchar(64);default:''"`
	Setor                  string    `json:"setor" gorm:"type:varchar(80);default:''"`
	Telefone               string    `json:"telefone" gorm:"type:varchar(80);default:''"`
	Endereco               string    `json:"endereco" gorm:"type:varchar(255);default:''"`
	Bairro                 string    `json:"bairro" gorm:"type:varchar(120);default:''"`
	Cidade                 string    `json:"cidade" gorm:"type:varchar(120);default:''"`
	Cep                    string    `json:"cep" gorm:"type:varchar(32);default:''"`
	InscricaoEstadual      string    `json:"inscricao_estadual" gorm:"type:varchar(64);default:''"`
	ResponsavelCliente     string    `json:"responsavel_cliente" gorm:"type:varchar(120);default:''"`
	ResponsavelRetirada    string    `json:"responsavel_retirada" gorm:"type:varchar(120);default:''"`
	ResponsavelConferencia string    `json:"responsavel_conferencia" gorm:"type:varchar(120);default:''"`
	CreatedAt              time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt              time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

func (CatalogClient) TableName() string {
	return "pickup_catalog_clients"
}

// CatalogUploadBatch é um evento de ingestão dos dois CSVs. Imutável após a
// criação; funciona como chave de partição do inventário: consultas de
// "dados atuais" sempre filtram pelo lote mais recente.
type CatalogUploadBatch struct {
	ID                int       `json:"id" gorm:"primaryKey"`
	ClientsFileName   string    `json:"clients_file_name" gorm:"type:varchar(255);default:''"`
	InventoryFileName string    `json:"inventory_file_name" gorm:"type:varchar(255);default:''"`
	ClientsCount      int       `json:"clients_count" gorm:"default:0"`
	InventoryClients  int       `json:"inventory_clients" gorm:"default:0"`
	OpenItems         int       `json:"open_items" gorm:"default:0"`
	SkippedRows       int       `json:"skipped_rows" gorm:"default:0"`
	UploadedAt        time.Time `json:"uploaded_at" gorm:"autoCreateTime;index"`
}

func (CatalogUploadBatch) TableName() string {
	return "pickup_catalog_upload_batches"
}

// CatalogInventoryItem é uma linha em aberto (saldo negativo) da base
// 02.02.20, vinculada a um cliente e a um lote de upload. Lotes antigos
// permanecem gravados para auditoria, mas fora das consultas correntes.
type CatalogInventoryItem struct {
	ID       int            `json:"id" gorm:"primaryKey"`
	ClientID int            `json:"client_id" gorm:"not null;index"`
	Client   *CatalogClient `json:"client,omitempty" gorm:"foreignKey:ClientID"`
	BatchID  *int           `json:"batch_id" gorm:"index"` // NULL apenas em dados legados pré-lote

	Description      string    `json:"description" gorm:"type:varchar(255);not null"`
	ItemType         string    `json:"item_type" gorm:"type:varchar(40);default:'outro';index"`
	OpenQuantity     int       `json:"open_quantity" gorm:"default:0"`
	RG               string    `json:"rg" gorm:"column:rg;type:varchar(120);default:''"`
	ComodatoNumber   string    `json:"comodato_number" gorm:"type:varchar(120);default:''"`
	InvoiceIssueDate string    `json:"invoice_issue_date" gorm:"type:varchar(40);default:''"`
	VolumeKey        string    `json:"volume_key" gorm:"type:varchar(20);default:''"`
	SourceBaixados   int       `json:"source_baixados" gorm:"default:0"`
	ProductCode      string    `json:"product_code" gorm:"type:varchar(120);default:''"`
	CreatedAt        time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt        time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

func (CatalogInventoryItem) TableName() string {
	return "pickup_catalog_inventory_items"
}

// Status possíveis de uma ordem de retirada
const (
	OrderStatusPending   = "pendente"
	OrderStatusCompleted = "concluida"
	OrderStatusCancelled = "cancelada"
)

// WithdrawalOrder é uma ordem de retirada gerada pela equipe. Os dados do
// cliente são copiados (snapshot), não referenciados ao vivo.
type WithdrawalOrder struct {
	ID          int    `json:"id" gorm:"primaryKey"`
	OrderNumber string `json:"order_number" gorm:"type:varchar(64);uniqueIndex"`
	CompanyName string `json:"company_name" gorm:"type:varchar(255);default:''"`

	ClientID               *int   `json:"client_id" gorm:"index"`
	ClientCode             string `json:"client_code" gorm:"type:varchar(64);default:''"`
	NomeFantasia           string `json:"nome_fantasia" gorm:"type:varchar(255);default:''"`
	RazaoSocial            string `json:"razao_social" gorm:"type:varchar(255);default:''"`
	CnpjCpf                string `json:"cnpj_cpf" gorm:"type:varchar(64);default:''"`
	Setor                  string `json:"setor" gorm:"type:varchar(80);default:''"`
	Telefone               string `json:"telefone" gorm:"type:varchar(80);default:''"`
	Endereco               string `json:"endereco" gorm:"type:varchar(255);default:''"`
	Bairro                 string `json:"bairro" gorm:"type:varchar(120);default:''"`
	Cidade                 string `json:"cidade" gorm:"type:varchar(120);default:''"`
	Cep                    string `json:"cep" gorm:"type:varchar(32);default:''"`
	InscricaoEstadual      string `json:"inscricao_estadual" gorm:"type:varchar(64);default:''"`
	ResponsavelCliente     string `json:"responsavel_cliente" gorm:"type:varchar(120);default:''"`
	ResponsavelRetirada    string `json:"responsavel_retirada" gorm:"type:varchar(120);default:''"`
	ResponsavelConferencia string `json:"responsavel_conferencia" gorm:"type:varchar(120);default:''"`

	WithdrawalDate string `json:"withdrawal_date" gorm:"type:varchar(20);default:''"`
	WithdrawalTime string `json:"withdrawal_time" gorm:"type:varchar(20);default:''"`
	SummaryLine    string `json:"summary_line" gorm:"type:text"`
	Observation    string `json:"observation" gorm:"type:text"`
	SelectedTypes  string `json:"selected_types" gorm:"type:varchar(255);default:''"`

	Status          string     `json:"status" gorm:"type:varchar(20);not null;default:'pendente';index"`
	StatusNote      string     `json:"status_note" gorm:"type:text"`
	StatusChangedBy string     `json:"status_changed_by" gorm:"type:varchar(120);default:''"`
	StatusChangedAt *time.Time `json:"status_changed_at"`

	Items []WithdrawalOrderItem `json:"items,omitempty" gorm:"foreignKey:OrderID"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime;index"`
}

func (WithdrawalOrder) TableName() string {
	return "pickup_catalog_orders"
}

// WithdrawalOrderItem é uma linha da ordem (item do inventário ou manual)
type WithdrawalOrderItem struct {
	ID      int `json:"id" gorm:"primaryKey"`
	OrderID int `json:"order_id" gorm:"not null;index"`

	Description  string `json:"description" gorm:"type:varchar(255);default:''"`
	ItemType     string `json:"item_type" gorm:"type:varchar(40);default:'outro'"`
	Quantity     int    `json:"quantity" gorm:"default:0"`
	QuantityText string `json:"quantity_text" gorm:"type:varchar(120);default:''"`
	RG           string `json:"rg" gorm:"column:rg;type:varchar(120);default:''"`
	VolumeKey    string `json:"volume_key" gorm:"type:varchar(20);default:''"`
}

func (WithdrawalOrderItem) TableName() string {
	return "pickup_catalog_order_items"
}
