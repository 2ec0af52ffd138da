package models

import "github.com/portfoliofuturo/portfolio-api/pkg/dto"

func (m Metadata) ToDTO() dto.UserMetadata {
	return dto.UserMetadata{
		Name:        m.Name,
		Role:        string(m.Role),
		CompanyName: m.CompanyName,
		City:        m.City,
		State:       m.State,
		Sector:      m.Sector,
		Description: m.Description,
		SchoolName:  m.SchoolName,
		Website:     m.Website,
		Bio:         m.Bio,
		SchoolCity:  m.SchoolCity,
	}
}

func (i *Identity) ToResponse() *dto.UserResponse {
	if i == nil {
		return nil
	}
	return &dto.UserResponse{
		ID:               i.ID,
		Email:            i.Email,
		UserMetadata:     i.Metadata.ToDTO(),
		EmailConfirmedAt: i.EmailConfirmedAt,
		LastSignInAt:     i.LastSignInAt,
		CreatedAt:        i.CreatedAt,
	}
}

func (s *Session) ToResponse() *dto.Session {
	if s == nil {
		return nil
	}
	return &dto.Session{
		ID:           s.ID,
		AccessToken:  s.AccessToken,
		RefreshToken: s.RefreshToken,
		ExpiresIn:    s.ExpiresIn,
		ExpiresAt:    s.ExpiresAt,
		User:         s.User.ToResponse(),
	}
}

func (e AuthEvent) ToResponse() dto.AuthEvent {
	out := dto.AuthEvent{
		Type:    string(e.Type),
		Session: e.Session.ToResponse(),
		User:    e.User.ToResponse(),
	}
	if out.User == nil && out.Session != nil {
		out.User = out.Session.User
	}
	return out
}

func (a *Account) ToResponse(user *Identity) *dto.AccountResponse {
	resp := &dto.AccountResponse{User: user.ToResponse()}
	if a == nil {
		return resp
	}
	if a.Profile != nil {
		resp.Profile = &dto.ProfileResponse{
			ID:   a.Profile.ID,
			Name: a.Profile.Name,
			Role: string(a.Profile.Role),
		}
	}
	if a.Student != nil {
		resp.Student = &dto.StudentResponse{Bio: a.Student.Bio, SchoolID: a.Student.SchoolID}
	}
	if a.Company != nil {
		resp.Company = &dto.CompanyResponse{
			CompanyName: a.Company.CompanyName,
			Description: a.Company.Description,
			Sector:      a.Company.Sector,
			City:        a.Company.City,
			State:       a.Company.State,
			Website:     a.Company.Website,
			LogoURL:     a.Company.LogoURL,
		}
	}
	if a.School != nil {
		resp.School = &dto.SchoolResponse{
			City:    a.School.City,
			State:   a.School.State,
			About:   a.School.About,
			Address: a.School.Address,
			Website: a.School.Website,
			LogoURL: a.School.LogoURL,
		}
	}
	return resp
}
