package importer

import (
	"time"

	"puretrack/errs"
	eventModel "puretrack/models/event"
	shipmentModel "puretrack/models/shipment"
	statusService "puretrack/services/status"
	importerTypes "puretrack/types/importer"

	"gorm.io/gorm"
)

// Preview classifies parsed rows against the current shipment set without
// persisting anything. The classification is exactly what Execute would do
// for the same input: rows whose reference already exists (in the database
// or earlier in the same file) are "update", unknown references are "new",
// unusable rows are "error".
func Preview(db *gorm.DB, rows []ParsedRow) (*importerTypes.PreviewResult, error) {
	existing, err := existingReferences(db)
	if err != nil {
		return nil, err
	}

	result := &importerTypes.PreviewResult{TotalRows: len(rows)}
	seen := make(map[string]bool, len(rows))

	for _, row := range rows {
		preview := importerTypes.PreviewRow{RowNumber: row.RowNumber}
		if row.Reference != "" {
			ref := row.Reference
			preview.Reference = &ref
		}
		preview.Customer = row.Fields.Customer
		preview.OrderNumber = row.Fields.OrderNumber
		if row.Fields.PlannedETD != nil {
			etd := row.Fields.PlannedETD.Format(time.RFC3339)
			preview.PlannedETD = &etd
		}

		switch {
		case row.Err != "":
			preview.Status = importerTypes.RowStatusError
			msg := row.Err
			preview.Error = &msg
			result.ErrorCount++
		case existing[row.Reference] || seen[row.Reference]:
			preview.Status = importerTypes.RowStatusUpdate
			result.UpdateCount++
		default:
			preview.Status = importerTypes.RowStatusNew
			seen[row.Reference] = true
			result.NewCount++
		}
		result.Rows = append(result.Rows, preview)
	}
	return result, nil
}

// Execute applies parsed rows to the shipment store. Rows are processed
// sequentially and independently: one row failing never aborts the batch.
// In create_only mode existing shipments are never touched; in
// update_or_create mode non-empty incoming fields are merged over existing
// ones (a blank cell never clears a stored value). References created earlier
// in the batch are visible to later rows.
func Execute(db *gorm.DB, rows []ParsedRow, mode string) (*importerTypes.Result, error) {
	if !importerTypes.IsValidMode(mode) {
		return nil, errs.Validationf("mode %q is not a recognized import mode", mode)
	}

	existing, err := existingReferences(db)
	if err != nil {
		return nil, err
	}

	result := &importerTypes.Result{Errors: []importerTypes.RowError{}}

	for _, row := range rows {
		if row.Err != "" {
			result.Errors = append(result.Errors, rowError(row, row.Err))
			continue
		}

		if existing[row.Reference] {
			if mode == importerTypes.ModeCreateOnly {
				result.Skipped++
				continue
			}
			if err := updateOne(db, row); err != nil {
				result.Errors = append(result.Errors, rowError(row, errs.Message(err)))
				continue
			}
			result.Updated++
			continue
		}

		if err := createOne(db, row); err != nil {
			result.Errors = append(result.Errors, rowError(row, errs.Message(err)))
			continue
		}
		existing[row.Reference] = true
		result.Created++
	}

	result.TotalProcessed = result.Created + result.Updated + result.Skipped + len(result.Errors)
	return result, nil
}

func existingReferences(db *gorm.DB) (map[string]bool, error) {
	var refs []string
	if err := db.Model(&shipmentModel.Shipment{}).Pluck("reference", &refs).Error; err != nil {
		return nil, errs.Wrap(err, "load shipment references")
	}
	set := make(map[string]bool, len(refs))
	for _, r := range refs {
		set[r] = true
	}
	return set, nil
}

func rowError(row ParsedRow, msg string) importerTypes.RowError {
	e := importerTypes.RowError{Row: row.RowNumber, Error: msg}
	if row.Reference != "" {
		ref := row.Reference
		e.Reference = &ref
	}
	return e
}

// createOne inserts a shipment plus its initial event in one transaction.
func createOne(db *gorm.DB, row ParsedRow) error {
	return db.Transaction(func(tx *gorm.DB) error {
		s := row.Fields
		initialType := eventModel.TypeOrderInfo
		if row.InferredStatus != nil {
			initialType = *row.InferredStatus
		}
		s.Status = initialType

		if err := tx.Create(&s).Error; err != nil {
			return errs.Wrap(err, "insert shipment")
		}

		ev := eventModel.Event{
			ShipmentID: s.ID,
			Type:       initialType,
			Timestamp:  time.Now().UTC(),
			Source:     eventModel.SourceImport,
		}
		if err := tx.Create(&ev).Error; err != nil {
			return errs.Wrap(err, "insert initial event")
		}
		return nil
	})
}

// updateOne merges the row into the existing shipment. When the sheet implies
// a status change an import event is appended and the status re-derived, so
// the event-log invariant holds for imported data too.
func updateOne(db *gorm.DB, row ParsedRow) error {
	return db.Transaction(func(tx *gorm.DB) error {
		var s shipmentModel.Shipment
		if err := tx.Where("reference = ?", row.Reference).First(&s).Error; err != nil {
			return errs.Wrap(err, "load shipment")
		}

		mergeFields(&s, &row.Fields)

		if row.InferredStatus != nil && s.Status != *row.InferredStatus {
			ev := eventModel.Event{
				ShipmentID: s.ID,
				Type:       *row.InferredStatus,
				Timestamp:  time.Now().UTC(),
				Source:     eventModel.SourceImport,
			}
			if err := tx.Create(&ev).Error; err != nil {
				return errs.Wrap(err, "insert status event")
			}

			var events []eventModel.Event
			if err := tx.Select("id", "type", "timestamp").
				Where("shipment_id = ?", s.ID).
				Find(&events).Error; err != nil {
				return errs.Wrap(err, "load event log")
			}
			s.Status = statusService.Derive(events)
		}

		if err := tx.Save(&s).Error; err != nil {
			return errs.Wrap(err, "update shipment")
		}
		return nil
	})
}

// mergeFields overwrites dst fields with non-nil incoming values. The
// reference is deliberately excluded: it is the immutable business key.
func mergeFields(dst, src *shipmentModel.Shipment) {
	setStr(&dst.Customer, src.Customer)
	setStr(&dst.Origin, src.Origin)
	setStr(&dst.Destination, src.Destination)
	if src.Incoterm != "" && src.Incoterm != shipmentModel.DefaultIncoterm {
		dst.Incoterm = src.Incoterm
	}

	setTime(&dst.PlannedETD, src.PlannedETD)
	setTime(&dst.PlannedETA, src.PlannedETA)

	setStr(&dst.ContainerNumber, src.ContainerNumber)
	setStr(&dst.SealNumber, src.SealNumber)

	setStr(&dst.SKU, src.SKU)
	setStr(&dst.ProductDescription, src.ProductDescription)
	setStr(&dst.ProductDescriptionOld, src.ProductDescriptionOld)
	setInt(&dst.Quantity, src.Quantity)
	setInt(&dst.QtyPreSerie, src.QtyPreSerie)
	setInt(&dst.QtyITS, src.QtyITS)
	setInt(&dst.QtyFOC, src.QtyFOC)
	setInt(&dst.QtyPackingAcc, src.QtyPackingAcc)
	setInt(&dst.QtyExtraCarton, src.QtyExtraCarton)

	setFloat(&dst.WeightKg, src.WeightKg)
	setFloat(&dst.VolumeCbm, src.VolumeCbm)
	setInt(&dst.NbPallets, src.NbPallets)
	setInt(&dst.NbCartons, src.NbCartons)

	setStr(&dst.OrderNumber, src.OrderNumber)
	setStr(&dst.BatchNumber, src.BatchNumber)

	setStr(&dst.Supplier, src.Supplier)
	setStr(&dst.SupplierContact, src.SupplierContact)

	setStr(&dst.IncotermCity, src.IncotermCity)
	setStr(&dst.DCToDeliver, src.DCToDeliver)
	setStr(&dst.LoadingPlace, src.LoadingPlace)
	setStr(&dst.POD, src.POD)

	setTime(&dst.QCDate, src.QCDate)
	setTime(&dst.MADDate, src.MADDate)
	setTime(&dst.ITSDate, src.ITSDate)
	setTime(&dst.DeliveryDate, src.DeliveryDate)

	setStr(&dst.Vessel, src.Vessel)
	setStr(&dst.BLNumber, src.BLNumber)

	setStr(&dst.ForwarderRef, src.ForwarderRef)
	setStr(&dst.PureTradeRef, src.PureTradeRef)

	setStr(&dst.Interlocuteur, src.Interlocuteur)
	setStr(&dst.ForwarderName, src.ForwarderName)
	setStr(&dst.ResponsablePureTrade, src.ResponsablePureTrade)
	setStr(&dst.AchatContact, src.AchatContact)

	setStr(&dst.TransportMode, src.TransportMode)
	setStr(&dst.ETO, src.ETO)
	setStr(&dst.HSCode, src.HSCode)
	setFloat(&dst.FreightRate, src.FreightRate)

	setStr(&dst.CommentsForwarder, src.CommentsForwarder)
	setStr(&dst.CommentsInternal, src.CommentsInternal)

	setStr(&dst.DepartureStat, src.DepartureStat)
	setStr(&dst.FoundStat, src.FoundStat)
	setStr(&dst.ShipmentRefExternal, src.ShipmentRefExternal)
}

func setStr(dst **string, src *string) {
	if src != nil && *src != "" {
		*dst = src
	}
}

func setInt(dst **int, src *int) {
	if src != nil {
		*dst = src
	}
}

func setFloat(dst **float64, src *float64) {
	if src != nil {
		*dst = src
	}
}

func setTime(dst **time.Time, src *time.Time) {
	if src != nil {
		*dst = src
	}
}
