package client

// Raw Alchemy API shapes. Only the fields the aggregators consume are mapped.

type rpcRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      int           `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type tokenBalancesResponse struct {
	Result *struct {
		Address       string `json:"address"`
		TokenBalances []struct {
			ContractAddress string `json:"contractAddress"`
			TokenBalance    string `json:"tokenBalance"`
		} `json:"tokenBalances"`
	} `json:"result"`
	Error *rpcError `json:"error"`
}

type tokenMetadataResponse struct {
	Result *struct {
		Name     string `json:"name"`
		Symbol   string `json:"symbol"`
		Decimals int    `json:"decimals"`
		Logo     string `json:"logo"`
	} `json:"result"`
	Error *rpcError `json:"error"`
}

type assetTransfersResponse struct {
	Result *struct {
		Transfers []struct {
			Hash        string  `json:"hash"`
			From        string  `json:"from"`
			To          string  `json:"to"`
			Value       float64 `json:"value"`
			Asset       string  `json:"asset"`
			Category    string  `json:"category"`
			BlockNum    string  `json:"blockNum"`
			RawContract struct {
				Address string `json:"address"`
			} `json:"rawContract"`
			Metadata struct {
				BlockTimestamp string `json:"blockTimestamp"`
			} `json:"metadata"`
		} `json:"transfers"`
		PageKey string `json:"pageKey"`
	} `json:"result"`
	Error *rpcError `json:"error"`
}

type nftsForOwnerResponse struct {
	OwnedNfts []struct {
		TokenID   string `json:"tokenId"`
		TokenType string `json:"tokenType"`
		Name      string `json:"name"`
		Balance   string `json:"balance"`
		Contract  struct {
			Address string `json:"address"`
			Name    string `json:"name"`
			Symbol  string `json:"symbol"`
		} `json:"contract"`
		Image struct {
			ThumbnailURL string `json:"thumbnailUrl"`
		} `json:"image"`
	} `json:"ownedNfts"`
	TotalCount int `json:"totalCount"`
}
